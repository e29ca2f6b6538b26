package prompter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestString(t *testing.T) {
	p, out := prompter("  ada  \n")
	s, err := p.String("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "ada", s)
	assert.Equal(t, "Username: ", out.String())
}

func TestStringWithoutTrailingNewline(t *testing.T) {
	p, _ := prompter("ada")
	s, err := p.String("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "ada", s)
}

func TestRequiredSkipsBlankLines(t *testing.T) {
	p, _ := prompter("\n  \nbob\n")
	s, err := p.Required("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "bob", s)

	p, _ = prompter("\n")
	_, err = p.Required("Username: ")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPasswordFromPipe(t *testing.T) {
	p, _ := prompter(" secret pw \n")
	pw, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " secret pw ", pw)
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false} {
		p, _ := prompter(input)
		got, err := p.Confirm("Delete?")
		require.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}

func TestSelect(t *testing.T) {
	p, out := prompter("2\n")
	idx, err := p.Select("Role", []string{"user", "admin"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "2) admin")

	p, _ = prompter("5\n")
	_, err = p.Select("Role", []string{"user", "admin"})
	assert.Error(t, err)
}

func TestMultiline(t *testing.T) {
	p, _ := prompter("line one\nline two\n\nignored\n")
	s, err := p.Multiline("Content", 10)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", s)

	p, _ = prompter("only\n")
	s, err = p.Multiline("Content", 10)
	require.NoError(t, err)
	assert.Equal(t, "only", s)
}
