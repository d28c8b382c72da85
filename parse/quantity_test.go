package parse

import (
	"errors"
	"testing"

	"nutriroutine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "150", want: 150},
		{name: "one decimal", input: "1.5", want: 1.5},
		{name: "comma decimal", input: "2,5", want: 2.5},
		{name: "surrounding spaces", input: "  3 ", want: 3},
		{name: "with unit", input: "150 gramos", wantErr: true},
		{name: "word", input: "dos", wantErr: true},
		{name: "negative", input: "-2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "two separators", input: "1.5.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, nutriroutine.ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "150", FormatQuantity(150))
	assert.Equal(t, "1.5", FormatQuantity(1.5))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Sí", want: "si"},
		{input: "  AÑADIR   alimento ", want: "anadir alimento"},
		{input: "Proteína", want: "proteina"},
		{input: "ver rutina 2025-10-01", want: "ver rutina 2025-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestHasWord(t *testing.T) {
	assert.True(t, HasWord("si, generar", "si"))
	assert.False(t, HasWord("sigue", "si"))
	assert.True(t, EqualFold("Atún", "atun"))
	assert.True(t, ContainsAny("quiero otra rutina", "rutina diferente", "otra rutina"))
}
