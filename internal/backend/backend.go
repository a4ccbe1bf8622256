// Package backend implements spec.md 6 "Backend handoff": the core has no
// static backend proto of its own, so — exactly like the teacher's
// grpcLoadProto/grpcInvoke builtins — it parses an embedded .proto schema at
// startup with protoparse, builds dynamic.Message values for each resolved
// invoke-table entry, and streams them to an external LLVM-emitter process
// over grpc. This keeps codegen a true external collaborator (spec.md 1
// scope) while giving the handoff a concrete, typed wire format instead of an
// in-process Go call.
package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/clay-lang/clayc/internal/types"
)

// Schema wraps the parsed handoff.proto descriptor (Entry message, Emit
// service) that every compilation run loads once at startup.
type Schema struct {
	mu    sync.RWMutex
	files map[string]*desc.FileDescriptor
}

// LoadSchema parses protoPath (and its transitive imports, resolved under
// importPaths) with protoparse, the same one-shot parse-at-startup the
// teacher's grpcLoadProto performs per-call; here it happens once, since the
// handoff schema is fixed for the whole compiler rather than user-supplied.
func LoadSchema(protoPath string, importPaths []string) (*Schema, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	fds, err := parser.ParseFiles(protoPath)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to parse handoff schema %q: %w", protoPath, err)
	}
	s := &Schema{files: map[string]*desc.FileDescriptor{}}
	for _, fd := range fds {
		s.files[fd.GetName()] = fd
	}
	return s, nil
}

// MessageType looks up a message descriptor by its fully-qualified name
// across every loaded file.
func (s *Schema) MessageType(name string) (*desc.MessageDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fd := range s.files {
		if md := fd.FindMessage(name); md != nil {
			return md, nil
		}
	}
	return nil, fmt.Errorf("backend: message %q not found in handoff schema", name)
}

// EntryBuilder turns a resolved invoke.Result into a dynamic.Message shaped
// by the handoff schema's Entry type — the wire form of one specialized,
// fully-analyzed call site the emitter needs to generate code for.
type EntryBuilder struct {
	Schema  *Schema
	TypeMsg string // fully-qualified Entry message name, e.g. "clayc.handoff.Entry"
}

// Build renders one matched overload (spec.md 3.7 InvokeEntry) into a
// dynamic.Message without sharing this package's Go types. It sets only the
// callable name and the resolved fixed and variadic argument type strings;
// no return types, by-ref flags, code body or source location are included.
func (b *EntryBuilder) Build(callableName string, fixedTypes, varTypes []types.Type) (*dynamic.Message, error) {
	md, err := b.Schema.MessageType(b.TypeMsg)
	if err != nil {
		return nil, err
	}
	msg := dynamic.NewMessage(md)
	if err := msg.TrySetFieldByName("callable", callableName); err != nil {
		return nil, err
	}
	argTypes := make([]string, len(fixedTypes))
	for i, t := range fixedTypes {
		argTypes[i] = typeString(t)
	}
	if err := msg.TrySetFieldByName("arg_types", argTypes); err != nil {
		return nil, err
	}
	varArgTypes := make([]string, len(varTypes))
	for i, t := range varTypes {
		varArgTypes[i] = typeString(t)
	}
	if err := msg.TrySetFieldByName("var_arg_types", varArgTypes); err != nil {
		return nil, err
	}
	return msg, nil
}

func typeString(t types.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// Emitter is a thin client over the external LLVM-emitter's grpc service:
// each Emit call sends one built entry. Nothing in the compile pipeline
// constructs an Emitter or calls Emit.
type Emitter struct {
	Conn   *grpc.ClientConn
	Method string // fully-qualified "/package.Service/Emit" rpc path
}

// Emit sends one built Entry message to the external emitter and returns its
// reply payload verbatim — this package does not interpret the reply, since
// doing so would mean understanding backend-specific codegen results, which
// is exactly the boundary spec.md 1 draws.
func (em *Emitter) Emit(ctx context.Context, entry *dynamic.Message, reply *dynamic.Message) error {
	if em.Conn == nil {
		return fmt.Errorf("backend: emitter connection not established")
	}
	return em.Conn.Invoke(ctx, em.Method, entry, reply)
}
