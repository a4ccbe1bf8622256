package utils

import (
	"path/filepath"

	"github.com/clay-lang/clayc/internal/config"
)

// ExtractModuleName derives a module's fallback name from its file path,
// used by internal/loader.parseFile as the name passed to Parser.ParseModule
// before the file's own `module NAME;` header (if any) is read.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}
