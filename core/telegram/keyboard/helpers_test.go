package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneTimeChoices(t *testing.T) {
	m := OneTimeChoices("yes", "no")
	require.NotNil(t, m)
	assert.True(t, m.OneTimeKeyboard)
	assert.True(t, m.ResizeKeyboard)
	require.Len(t, m.ReplyKeyboard, 1)
	require.Len(t, m.ReplyKeyboard[0], 2)
	assert.Equal(t, "yes", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "no", m.ReplyKeyboard[0][1].Text)

	assert.Nil(t, OneTimeChoices())
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
