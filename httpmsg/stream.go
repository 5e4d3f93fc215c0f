package httpmsg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stream wraps exactly one underlying byte source at a time. Readability,
// writability and seekability are derived from how the source was opened
// (the mode string for files, interface satisfaction otherwise), never
// asserted. Detach severs ownership: every later operation fails with
// ErrStreamDetached.
type Stream struct {
	src any

	r io.Reader
	w io.Writer
	s io.Seeker
	c io.Closer

	mode string
	uri  string
	eof  bool
}

// OpenStream opens the file at path with an fopen-style mode string
// ("r", "r+", "w", "w+", "a", "a+", "x", "x+"; a trailing "b" or "t" is
// ignored) and wraps it in a Stream.
func OpenStream(path, mode string) (*Stream, error) {
	flag, err := modeFlags(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("httpmsg: open stream: %w", err)
	}
	st := &Stream{src: f, s: f, c: f, mode: mode, uri: path}
	if streamReadable(mode) {
		st.r = f
	}
	if streamWritable(mode) {
		st.w = f
	}
	return st, nil
}

// NewStream wraps an already-open source. The source must satisfy at least
// one of io.Reader and io.Writer; io.Seeker and io.Closer are picked up when
// present. Files obtained elsewhere keep whatever capabilities their handle
// exposes.
func NewStream(src any) (*Stream, error) {
	st := &Stream{src: src}
	if r, ok := src.(io.Reader); ok {
		st.r = r
	}
	if w, ok := src.(io.Writer); ok {
		st.w = w
	}
	if s, ok := src.(io.Seeker); ok {
		st.s = s
	}
	if c, ok := src.(io.Closer); ok {
		st.c = c
	}
	if st.r == nil && st.w == nil {
		return nil, fmt.Errorf("%w: source is neither readable nor writable", ErrInvalidArgument)
	}
	if f, ok := src.(*os.File); ok {
		st.uri = f.Name()
	}
	return st, nil
}

// NewStringStream returns a read-only, seekable Stream over s.
func NewStringStream(s string) *Stream {
	r := strings.NewReader(s)
	return &Stream{src: r, r: r, s: r, mode: "r"}
}

// NewBufferStream returns an empty read-write Stream backed by memory,
// suitable for building message bodies.
func NewBufferStream() *Stream {
	b := &bytes.Buffer{}
	return &Stream{src: b, r: b, w: b, mode: "r+"}
}

// Read implements io.Reader against the underlying source.
func (s *Stream) Read(p []byte) (int, error) {
	if s.src == nil {
		return 0, ErrStreamDetached
	}
	if s.r == nil {
		return 0, ErrStreamNotReadable
	}
	n, err := s.r.Read(p)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

// Write implements io.Writer against the underlying source.
func (s *Stream) Write(p []byte) (int, error) {
	if s.src == nil {
		return 0, ErrStreamDetached
	}
	if s.w == nil {
		return 0, ErrStreamNotWritable
	}
	return s.w.Write(p)
}

// Seek implements io.Seeker against the underlying source.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.src == nil {
		return 0, ErrStreamDetached
	}
	if s.s == nil {
		return 0, ErrStreamNotSeekable
	}
	pos, err := s.s.Seek(offset, whence)
	if err == nil {
		s.eof = false
	}
	return pos, err
}

// Tell returns the current position of the underlying source.
func (s *Stream) Tell() (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// Rewind seeks back to the beginning.
func (s *Stream) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Eof reports whether a Read has hit the end of the source.
func (s *Stream) Eof() bool { return s.eof }

// Readable reports whether the stream can be read from.
func (s *Stream) Readable() bool { return s.src != nil && s.r != nil }

// Writable reports whether the stream can be written to.
func (s *Stream) Writable() bool { return s.src != nil && s.w != nil }

// Seekable reports whether the stream supports Seek.
func (s *Stream) Seekable() bool { return s.src != nil && s.s != nil }

// Size returns the total size of the underlying source when it can be
// determined (files are stat'ed, seekable sources are measured), else ok is
// false.
func (s *Stream) Size() (size int64, ok bool) {
	if s.src == nil {
		return 0, false
	}
	if f, isFile := s.src.(*os.File); isFile {
		fi, err := f.Stat()
		if err != nil {
			return 0, false
		}
		return fi.Size(), true
	}
	if b, isBuf := s.src.(*bytes.Buffer); isBuf {
		return int64(b.Len()), true
	}
	if s.s == nil {
		return 0, false
	}
	cur, err := s.s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	end, err := s.s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, false
	}
	if _, err := s.s.Seek(cur, io.SeekStart); err != nil {
		return 0, false
	}
	return end, true
}

// Contents reads and returns everything from the current position to the
// end of the source.
func (s *Stream) Contents() (string, error) {
	if s.src == nil {
		return "", ErrStreamDetached
	}
	if s.r == nil {
		return "", ErrStreamNotReadable
	}
	b, err := io.ReadAll(s.r)
	if err != nil {
		return "", fmt.Errorf("httpmsg: read stream: %w", err)
	}
	s.eof = true
	return string(b), nil
}

// String reads the whole source from the start, best-effort: it returns ""
// when the stream is detached, unreadable or fails mid-read.
func (s *Stream) String() string {
	if s.Seekable() {
		if err := s.Rewind(); err != nil {
			return ""
		}
	}
	c, err := s.Contents()
	if err != nil {
		return ""
	}
	return c
}

// Close closes the underlying source when it is closable and detaches it.
func (s *Stream) Close() error {
	if s.src == nil {
		return nil
	}
	c := s.c
	s.Detach()
	if c != nil {
		return c.Close()
	}
	return nil
}

// Detach returns the underlying source and leaves the stream inert; all
// subsequent operations fail with ErrStreamDetached. It returns nil when the
// stream was already detached.
func (s *Stream) Detach() any {
	src := s.src
	s.src = nil
	s.r = nil
	s.w = nil
	s.s = nil
	s.c = nil
	s.mode = ""
	s.uri = ""
	return src
}

// Metadata returns a descriptor map for the underlying source. After Detach
// the map is empty.
func (s *Stream) Metadata() map[string]any {
	if s.src == nil {
		return map[string]any{}
	}
	md := map[string]any{
		"seekable": s.Seekable(),
		"readable": s.Readable(),
		"writable": s.Writable(),
		"eof":      s.eof,
	}
	if s.mode != "" {
		md["mode"] = s.mode
	}
	if s.uri != "" {
		md["uri"] = s.uri
	}
	return md
}

// MetadataValue returns a single metadata entry, or nil when the key is
// absent.
func (s *Stream) MetadataValue(key string) any {
	return s.Metadata()[key]
}

func modeFlags(mode string) (int, error) {
	base := strings.TrimRight(mode, "bt")
	switch base {
	case "r":
		return os.O_RDONLY, nil
	case "r+":
		return os.O_RDWR, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	case "x":
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, nil
	case "x+":
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, nil
	}
	return 0, fmt.Errorf("%w: unsupported stream mode %q", ErrInvalidArgument, mode)
}

func streamReadable(mode string) bool {
	return strings.HasPrefix(mode, "r") || strings.Contains(mode, "+")
}

func streamWritable(mode string) bool {
	return !strings.HasPrefix(mode, "r") || strings.Contains(mode, "+")
}
