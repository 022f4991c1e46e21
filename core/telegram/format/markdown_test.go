package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"Sao_Paulo", MarkdownV1, `Sao\_Paulo`},
		{"*bold* [x]", MarkdownV1, `\*bold\* \[x]`},
		{"St. Louis (MO)", MarkdownV2, `St\. Louis \(MO\)`},
		{"plain", MarkdownV2, "plain"},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := EscapeMarkdown("x", 3)
	assert.Error(t, err)
	assert.Equal(t, "Paris", EscapeV1("Paris"))
}

func TestEscapeMarkdownV2KeepsDigits(t *testing.T) {
	got, err := EscapeMarkdown("22.5-3", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `22\.5\-3`, got)
}
