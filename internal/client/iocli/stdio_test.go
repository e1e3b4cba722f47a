package iocli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader(""), &out)

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")

	assert.Equal(t, "hello world\ntest 1 abc", out.String())
}

func TestReadInput(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader("  app123  \nListings\n"), &out)

	first, err := stdio.ReadInput("Base ID: ")
	require.NoError(t, err)
	assert.Equal(t, "app123", first)

	second, err := stdio.ReadInput("Table: ")
	require.NoError(t, err)
	assert.Equal(t, "Listings", second)

	assert.Equal(t, "Base ID: Table: ", out.String())
}

func TestReadInput_LastLineWithoutNewline(t *testing.T) {
	stdio := NewStreams(strings.NewReader("ops"), io.Discard)

	got, err := stdio.ReadInput("Operator: ")
	require.NoError(t, err)
	assert.Equal(t, "ops", got)

	_, err = stdio.ReadInput("Operator: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadSecret_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader("pat.secret\n"), &out)

	got, err := stdio.ReadSecret("Token: ")
	require.NoError(t, err)
	assert.Equal(t, "pat.secret", got)
	assert.Equal(t, "Token: ", out.String())
}
