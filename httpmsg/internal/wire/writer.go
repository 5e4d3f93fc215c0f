// Package wire serializes the response head to an output sink.
package wire

import (
	"fmt"
	"io"
	"strings"
)

// Field is one header line: a canonical name and its values, written as one
// line per value.
type Field struct {
	Name   string
	Values []string
}

// WriteStatusLine writes "<proto> <code> <reason>\r\n".
func WriteStatusLine(w io.Writer, proto string, code int, reason string) error {
	_, err := fmt.Fprintf(w, "%s %d %s\r\n", proto, code, reason)
	return err
}

// WriteFields writes every field value as its own header line. Values are
// sanitized against CR/LF injection; names are assumed canonical.
func WriteFields(w io.Writer, fields []Field) error {
	for _, f := range fields {
		for _, v := range f.Values {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", f.Name, SanitizeFieldValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// EndHeaders writes the blank line terminating the header block.
func EndHeaders(w io.Writer) error {
	_, err := io.WriteString(w, "\r\n")
	return err
}

// SanitizeFieldValue strips CR, LF and other control bytes except HTAB.
func SanitizeFieldValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
