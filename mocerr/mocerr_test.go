package mocerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/mocerr"
)

func TestKind_FatalClassification(t *testing.T) {
	fatal := []mocerr.Kind{
		mocerr.Database, mocerr.File, mocerr.Validation, mocerr.DataConsistency,
		mocerr.NoMobiles, mocerr.MemAllocation, mocerr.NullPointer, mocerr.BufferOverflow,
	}
	for _, k := range fatal {
		require.True(t, k.Fatal(), "%s should be fatal", k)
	}

	nonFatal := []mocerr.Kind{mocerr.Ok, mocerr.Argument, mocerr.Stream, mocerr.UseDefault, mocerr.Unknown}
	for _, k := range nonFatal {
		require.False(t, k.Fatal(), "%s should not be fatal", k)
	}
}

func TestKind_StringNamesEveryKind(t *testing.T) {
	require.Equal(t, "Database", mocerr.Database.String())
	require.Equal(t, "Argument", mocerr.Argument.String())
	require.Equal(t, "Unknown", mocerr.Kind(999).String())
}

func TestError_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := mocerr.New(mocerr.File, "stateimage.SaveToFile", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "File")
	require.Contains(t, err.Error(), "stateimage.SaveToFile")
	require.Contains(t, err.Error(), "disk full")
}

func TestError_NoWrappedErrorOmitsTrailingColon(t *testing.T) {
	err := &mocerr.Error{Kind: mocerr.Validation, Source: "model.Normalize"}
	require.Equal(t, "Validation: model.Normalize", err.Error())
}

func TestNewf_FormatsMessageAsWrappedError(t *testing.T) {
	err := mocerr.Newf(mocerr.DataConsistency, "model.decodeVec3Span", "blob length %d not a multiple of 24", 25)
	require.Contains(t, err.Error(), "blob length 25 not a multiple of 24")
	require.Equal(t, mocerr.DataConsistency, err.Kind)
}
