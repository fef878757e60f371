package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want DType
	}{
		{"INTEGER", Integer},
		{"int", Integer},
		{"BIGINT", BigInt},
		{"double", Double},
		{"DECIMAL", Double},
		{"varchar", Varchar},
		{"TEXT", Varchar},
		{"bool", Boolean},
		{"VARCHAR[]", VarcharList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseType("GEOMETRY")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestUnify(t *testing.T) {
	t.Parallel()

	require.Equal(t, BigInt, Unify(Integer, BigInt))
	require.Equal(t, Double, Unify(BigInt, Double))
	require.Equal(t, Varchar, Unify(Null, Varchar))
	require.Equal(t, Integer, Unify(Integer, Null))
	require.Equal(t, Varchar, Unify(Boolean, Integer))
	require.Equal(t, Varchar, Unify(Varchar, Double))
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", FormatValue(nil))
	require.Equal(t, "1700.0", FormatValue(1700.0))
	require.Equal(t, "11.95", FormatValue(11.95))
	require.Equal(t, "42", FormatValue(int32(42)))
	require.Equal(t, "true", FormatValue(true))
	require.Equal(t, "[a,  b]", FormatValue([]string{"a", " b"}))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(7), Convert(int32(7), BigInt))
	require.Equal(t, 7.0, Convert(int64(7), Double))
	require.Equal(t, "7", Convert(int64(7), Varchar))
	require.Nil(t, Convert(nil, Double))
	require.Equal(t, "x", Convert("x", Varchar))
}
