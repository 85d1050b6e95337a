package routine_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/routine"
	"github.com/mocsim/mocsim/transition"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	called := false
	r := routine.Routine{
		UUID: id,
		Name: "noop",
		Entry: func(ctx *transition.Context) error {
			called = true
			return nil
		},
	}

	reg := routine.NewRegistry()
	reg.Register(r)

	got, ok := reg.Lookup(id)
	require.True(t, ok)
	require.Equal(t, "noop", got.Name)
	require.NoError(t, got.Entry(nil))
	require.True(t, called)

	byName, ok := reg.LookupName("noop")
	require.True(t, ok)
	require.Equal(t, id, byName.UUID)

	_, ok = reg.Lookup(uuid.MustParse("00000000-0000-0000-0000-000000000002"))
	require.False(t, ok)
}

func TestScan_FindsOnlyMocextFiles(t *testing.T) {
	dir := t.TempDir()

	suffix := "so"
	switch runtime.GOOS {
	case "windows":
		suffix = "dll"
	case "darwin":
		suffix = "dylib"
	}

	match := filepath.Join(dir, "thermal.mocext."+suffix)
	noise := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(match, []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(noise, []byte("fake"), 0o644))

	found, err := routine.Scan(dir)
	require.NoError(t, err)
	require.Equal(t, []string{match}, found)
}

func TestScan_EmptyDirYieldsNoMatches(t *testing.T) {
	found, err := routine.Scan(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, found)
}
