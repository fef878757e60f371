package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/salesql/frame"
)

func TestCastValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		to    frame.DType
		want  interface{}
	}{
		{"null stays null", nil, frame.Integer, nil},
		{"string to integer", "295665", frame.Integer, int32(295665)},
		{"padded string to integer", " 42 ", frame.Integer, int32(42)},
		{"string to bigint", "3000000000", frame.BigInt, int64(3000000000)},
		{"double rounds half away from zero", 2.5, frame.Integer, int32(3)},
		{"negative double rounds", -2.5, frame.BigInt, int64(-3)},
		{"bool to integer", true, frame.Integer, int32(1)},
		{"string to double", "11.95", frame.Double, 11.95},
		{"integer to double", int32(2), frame.Double, 2.0},
		{"double to varchar", 600.0, frame.Varchar, "600.0"},
		{"integer to varchar", int64(7), frame.Varchar, "7"},
		{"list to varchar", []string{"a", "b"}, frame.Varchar, "[a, b]"},
		{"string to boolean", "yes", frame.Boolean, true},
		{"number to boolean", 0.0, frame.Boolean, false},
		{"string to list", "x", frame.VarcharList, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := castValue(tt.value, tt.to)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCastValue_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		to    frame.DType
		msg   string
	}{
		{"letters to integer", "ABC", frame.Integer, "could not convert string 'ABC' to INTEGER"},
		{"decimal string to integer", "1.5", frame.Integer, "could not convert string '1.5' to INTEGER"},
		{"integer overflow", "3000000000", frame.Integer, "to INTEGER"},
		{"double overflow", 1e20, frame.BigInt, "to BIGINT"},
		{"double at bigint bound", 9223372036854775807.0, frame.BigInt, "to BIGINT"},
		{"letters to double", "Price Each", frame.Double, "could not convert string 'Price Each' to DOUBLE"},
		{"bad boolean", "maybe", frame.Boolean, "to BOOLEAN"},
		{"number to list", int64(1), frame.VarcharList, "to VARCHAR[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := castValue(tt.value, tt.to)
			require.ErrorIs(t, err, ErrConversion)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestEval_TryCast(t *testing.T) {
	got, err := evalExpr(t, "TRY_CAST('ABC' AS INTEGER)")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = evalExpr(t, "TRY_CAST('295665' AS INTEGER)")
	require.NoError(t, err)
	require.Equal(t, int32(295665), got)

	_, err = evalExpr(t, "CAST('ABC' AS INTEGER)")
	require.ErrorIs(t, err, ErrConversion)

	got, err = evalExpr(t, "TRY_CAST(9223372036854775807.0 AS BIGINT)")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = evalExpr(t, "CAST(9223372036854775807.0 AS BIGINT)")
	require.ErrorIs(t, err, ErrConversion)

	got, err = evalExpr(t, "'12'::BIGINT + 1")
	require.NoError(t, err)
	require.Equal(t, int64(13), got)
}
