package prompt

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlain_ReadLine(t *testing.T) {
	var out bytes.Buffer
	p := NewPlain(strings.NewReader("2\r\nuptime\n\nquit"), &out)
	defer p.Close()

	for _, want := range []string{"2", "uptime", "", "quit"} {
		got, err := p.ReadLine("> ")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := p.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, strings.Repeat("> ", 5), out.String())
}

func TestCompleter(t *testing.T) {
	complete := Completer([]string{"uptime", "users", "date", "Uname", "quit"})

	assert.Equal(t, []string{"Uname", "uptime", "users"}, complete("u"))
	assert.Equal(t, []string{"uptime"}, complete("UP"))
	assert.Empty(t, complete("x"))
	assert.Len(t, complete(""), 5)
}

func TestNew_PlainWhenNotTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	lr := New(Options{In: r, Out: w})
	defer lr.Close()

	_, ok := lr.(*Plain)
	assert.True(t, ok, "expected a Plain reader for a pipe, got %T", lr)
	assert.False(t, IsTerminal(r))
}
