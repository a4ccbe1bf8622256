package lexer

import (
	"testing"

	"github.com/clay-lang/clayc/internal/source"
	"github.com/clay-lang/clayc/internal/token"
)

func lexAll(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(source.New("test.clay", []byte(input)))
	toks, err := l.Tokens()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return toks
}

func TestNumericLiterals(t *testing.T) {
	cases := []struct {
		in   string
		kind token.Kind
	}{
		{"123", token.INT},
		{"0x1F", token.INT},
		{"1_000u32", token.INT},
		{"1.5", token.FLOAT},
		{"1.5f32", token.FLOAT},
		{"2i64", token.INT},
	}
	for _, c := range cases {
		toks := lexAll(t, c.in)
		if len(toks) != 2 || toks[0].Kind != c.kind {
			t.Errorf("%q: got %v, want single token of kind %v", c.in, toks, c.kind)
		}
	}
}

func TestStaticIndex(t *testing.T) {
	toks := lexAll(t, "x.12")
	if toks[0].Kind != token.IDENT || toks[1].Kind != token.STATICIDX || toks[1].Literal != "12" {
		t.Fatalf("unexpected tokens: %+v", toks)
	}
}

func TestTripleQuotedString(t *testing.T) {
	toks := lexAll(t, `"""line1
line2"""`)
	if toks[0].Kind != token.STRINGLIT {
		t.Fatalf("expected string literal, got %+v", toks[0])
	}
	want := "line1\nline2"
	if toks[0].Literal != want {
		t.Fatalf("got %q, want %q", toks[0].Literal, want)
	}
}

func TestEscapes(t *testing.T) {
	toks := lexAll(t, `"a\n\t\x41"`)
	if toks[0].Literal != "a\n\tA" {
		t.Fatalf("got %q", toks[0].Literal)
	}
}

func TestLLVMBlock(t *testing.T) {
	toks := lexAll(t, "__llvm__ { ret i32 { 0 } }")
	if toks[0].Kind != token.LLVMBLOCK {
		t.Fatalf("expected LLVMBLOCK, got %+v", toks[0])
	}
	if toks[0].Literal != " ret i32 { 0 } " {
		t.Fatalf("got body %q", toks[0].Literal)
	}
}

func TestIllegalByteReportsOffset(t *testing.T) {
	l := New(source.New("t.clay", []byte("x = @")))
	_, err := l.Tokens()
	if err == nil {
		t.Fatal("expected lex error")
	}
	if err.Loc.Offset != 4 {
		t.Fatalf("expected offset 4, got %d", err.Loc.Offset)
	}
}

func TestOperatorIdentMaximalMunch(t *testing.T) {
	toks := lexAll(t, "a <=> b")
	if toks[1].Kind != token.OPIDENT || toks[1].Lexeme != "<=>" {
		t.Fatalf("expected single OPIDENT <=>, got %+v", toks[1])
	}
}

func TestRoundTripWhitespaceInsensitive(t *testing.T) {
	a := lexAll(t, "foo(1,2)")
	b := lexAll(t, "foo( 1 , 2 )")
	if len(a) != len(b) {
		t.Fatalf("token count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Literal != b[i].Literal {
			t.Fatalf("token %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
