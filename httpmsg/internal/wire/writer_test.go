package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStatusLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatusLine(&buf, "HTTP/1.1", 204, "No Content"))
	assert.Equal(t, "HTTP/1.1 204 No Content\r\n", buf.String())
}

func TestWriteFieldsOrderAndFanOut(t *testing.T) {
	var buf bytes.Buffer
	fields := []Field{
		{Name: "Content-Type", Values: []string{"text/plain"}},
		{Name: "X-Tag", Values: []string{"a", "b"}},
	}
	require.NoError(t, WriteFields(&buf, fields))
	require.NoError(t, EndHeaders(&buf))

	want := "Content-Type: text/plain\r\n" +
		"X-Tag: a\r\n" +
		"X-Tag: b\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestSanitizeFieldValue(t *testing.T) {
	assert.Equal(t, "ab", SanitizeFieldValue("a\r\nb"))
	assert.Equal(t, "a\tb", SanitizeFieldValue("a\tb"))
	assert.Equal(t, "ab", SanitizeFieldValue("a\x00\x7fb"))
	assert.Equal(t, "", SanitizeFieldValue(""))
}
