// Package routine implements the pluggable routine contract spec.md §4.9
// names: a UUID identifying the routine plus a single entry point taking
// the simulation context. The core never loads dynamic libraries itself
// (spec.md out-of-scope item (c), DESIGN NOTES "Plug-in routines") — it
// holds a builtin registry keyed by UUID, and a directory-scan discovery
// stub that recognizes the *.mocext.<suffix> naming convention without
// ever opening the file.
package routine

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/transition"
)

// Entry is the second plugin symbol, get_entry(): the routine's main
// function, given the live simulation context.
type Entry func(ctx *transition.Context) error

// Routine pairs a UUID (the first plugin symbol, get_uuid()) with its
// entry point.
type Routine struct {
	UUID  uuid.UUID
	Name  string
	Entry Entry
}

// Registry is a UUID-keyed handle table, standing in for the core's
// loaded-library table: builtins never need unloading, but external
// plugins discovered by Scan would be released from the same table at
// shutdown.
type Registry struct {
	byUUID map[uuid.UUID]Routine
}

// NewRegistry allocates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUUID: make(map[uuid.UUID]Routine)}
}

// Register adds r to the registry, keyed by r.UUID. A later Register with
// the same UUID replaces the earlier one, mirroring "on mismatch or
// missing symbols, the library is unloaded" for the builtin case.
func (reg *Registry) Register(r Routine) {
	reg.byUUID[r.UUID] = r
}

// Lookup resolves id to a registered routine.
func (reg *Registry) Lookup(id uuid.UUID) (Routine, bool) {
	r, ok := reg.byUUID[id]
	return r, ok
}

// LookupName resolves a builtin by its short name ("kmc", "mmc", "mmcfe").
func (reg *Registry) LookupName(name string) (Routine, bool) {
	for _, r := range reg.byUUID {
		if r.Name == name {
			return r, true
		}
	}
	return Routine{}, false
}

// pluginSuffix is the platform-native dynamic-library suffix used to
// build the *.mocext.<suffix> discovery pattern (spec.md §6).
func pluginSuffix() string {
	switch runtime.GOOS {
	case "windows":
		return "dll"
	case "darwin":
		return "dylib"
	default:
		return "so"
	}
}

// Scan lists candidate plugin files in dir matching *.mocext.<suffix>.
// It never opens or dlopens them: resolving get_uuid()/get_entry() and
// loading the library body is the OS-loader mechanism spec.md places out
// of scope (item (c)); Scan only returns the paths a loader would try.
func Scan(dir string) ([]string, error) {
	pattern := filepath.Join(dir, "*.mocext."+pluginSuffix())
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, mocerr.Newf(mocerr.Unknown, "routine.Scan", "invalid search pattern %q: %v", pattern, err)
	}
	var out []string
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && !info.IsDir() {
			out = append(out, m)
		}
	}
	return out, nil
}
