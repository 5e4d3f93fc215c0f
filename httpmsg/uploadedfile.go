package httpmsg

import (
	"fmt"
	"io"
	"os"
)

// UploadError is the enumerated outcome of a file upload attempt. It is
// carried as data, not raised: only Stream and MoveTo escalate a non-OK
// code into an error.
type UploadError int

const (
	UploadOK UploadError = iota
	UploadErrSizeExceeded
	UploadErrPartial
	UploadErrNoFile
	UploadErrNoTmpDir
	UploadErrCantWrite
	UploadErrExtension
)

func (e UploadError) String() string {
	switch e {
	case UploadOK:
		return "ok"
	case UploadErrSizeExceeded:
		return "size exceeded"
	case UploadErrPartial:
		return "partial upload"
	case UploadErrNoFile:
		return "no file"
	case UploadErrNoTmpDir:
		return "no temporary directory"
	case UploadErrCantWrite:
		return "write failure"
	case UploadErrExtension:
		return "blocked by extension"
	}
	return fmt.Sprintf("upload error %d", int(e))
}

// moveBufSize is the chunk size for the stream-copy fallback in MoveTo.
const moveBufSize = 4096

// UploadedFile describes one uploaded file: its temporary location (a path
// or a pre-built Stream, exactly one retained), the client-supplied metadata
// and the upload outcome. A file can be moved at most once.
type UploadedFile struct {
	path   string
	stream *Stream

	size       int64
	uploadErr  UploadError
	clientName string
	clientType string
	moved      bool
}

// NewUploadedFile builds an UploadedFile from src, which must be a temp-file
// path string or a *Stream. clientName and clientType are the untrusted
// values the client transmitted and may be empty.
func NewUploadedFile(src any, size int64, uploadErr UploadError, clientName, clientType string) (*UploadedFile, error) {
	f := &UploadedFile{
		size:       size,
		uploadErr:  uploadErr,
		clientName: clientName,
		clientType: clientType,
	}
	switch t := src.(type) {
	case string:
		f.path = t
	case *Stream:
		f.stream = t
	default:
		return nil, fmt.Errorf("%w: upload source must be a path or a *Stream, got %T", ErrInvalidArgument, src)
	}
	return f, nil
}

// Size returns the size the transport reported for the upload.
func (f *UploadedFile) Size() int64 { return f.size }

// Error returns the upload outcome code.
func (f *UploadedFile) Error() UploadError { return f.uploadErr }

// ClientFilename returns the client-supplied file name, or "".
func (f *UploadedFile) ClientFilename() string { return f.clientName }

// ClientMediaType returns the client-supplied media type, or "".
func (f *UploadedFile) ClientMediaType() string { return f.clientType }

// Moved reports whether the file has been moved away.
func (f *UploadedFile) Moved() bool { return f.moved }

// Stream returns a Stream over the uploaded bytes, lazily opening a
// path-backed source on first call and caching it. It fails when the upload
// did not complete or the file was already moved.
func (f *UploadedFile) Stream() (*Stream, error) {
	if f.uploadErr != UploadOK {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, f.uploadErr)
	}
	if f.moved {
		return nil, ErrAlreadyMoved
	}
	if f.stream != nil {
		return f.stream, nil
	}
	s, err := OpenStream(f.path, "r")
	if err != nil {
		return nil, err
	}
	f.stream = s
	return s, nil
}

// MoveTo moves the uploaded bytes to dst. Path-backed uploads are renamed
// when possible and fall back to a buffered copy (for cross-device targets);
// stream-backed uploads are always copied. A second call always fails: the
// moved latch is one-way.
func (f *UploadedFile) MoveTo(dst string) error {
	if f.uploadErr != UploadOK {
		return fmt.Errorf("%w: %s", ErrUploadFailed, f.uploadErr)
	}
	if dst == "" {
		return fmt.Errorf("%w: empty destination path", ErrInvalidArgument)
	}
	if f.moved {
		return ErrAlreadyMoved
	}

	if f.path != "" && f.stream == nil {
		if err := os.Rename(f.path, dst); err == nil {
			f.moved = true
			return nil
		}
		src, err := OpenStream(f.path, "r")
		if err != nil {
			return err
		}
		defer src.Close()
		if err := copyToPath(src, dst); err != nil {
			return err
		}
		if err := os.Remove(f.path); err != nil {
			return fmt.Errorf("httpmsg: remove moved upload: %w", err)
		}
		f.moved = true
		return nil
	}

	src := f.stream
	if src.Seekable() {
		if err := src.Rewind(); err != nil {
			return err
		}
	}
	if err := copyToPath(src, dst); err != nil {
		return err
	}
	f.moved = true
	return nil
}

func copyToPath(src *Stream, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("httpmsg: create upload target: %w", err)
	}
	buf := make([]byte, moveBufSize)
	if _, err := io.CopyBuffer(out, src, buf); err != nil {
		out.Close()
		return fmt.Errorf("httpmsg: copy upload: %w", err)
	}
	return out.Close()
}

// NormalizeUploadedFiles walks a nested upload descriptor tree and returns
// an isomorphic tree in which every leaf is a *UploadedFile. Accepted leaves
// are already-normalized *UploadedFile values and raw descriptor groups:
// maps with a "tmp_name" key and optional "size", "error", "name" and "type"
// keys, each either a scalar or a parallel []any for multi-file inputs.
// Anything else fails with ErrInvalidArgument.
func NormalizeUploadedFiles(files map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(files))
	for key, v := range files {
		nv, err := normalizeUploadBranch(key, v)
		if err != nil {
			return nil, err
		}
		out[key] = nv
	}
	return out, nil
}

func normalizeUploadBranch(key string, v any) (any, error) {
	switch t := v.(type) {
	case *UploadedFile:
		return t, nil
	case map[string]any:
		if _, ok := t["tmp_name"]; ok {
			return uploadsFromDescriptor(key, t)
		}
		return NormalizeUploadedFiles(t)
	}
	return nil, fmt.Errorf("%w: upload entry %q is neither a descriptor nor an UploadedFile", ErrInvalidArgument, key)
}

func uploadsFromDescriptor(key string, desc map[string]any) (any, error) {
	if tmps, ok := desc["tmp_name"].([]any); ok {
		out := make([]any, len(tmps))
		for i := range tmps {
			one := map[string]any{
				"tmp_name": tmps[i],
				"size":     descIndex(desc["size"], i),
				"error":    descIndex(desc["error"], i),
				"name":     descIndex(desc["name"], i),
				"type":     descIndex(desc["type"], i),
			}
			f, err := uploadsFromDescriptor(key, one)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}

	tmp, ok := desc["tmp_name"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: upload entry %q has a non-string tmp_name", ErrInvalidArgument, key)
	}
	size, err := descInt(key, "size", desc["size"])
	if err != nil {
		return nil, err
	}
	code, err := descInt(key, "error", desc["error"])
	if err != nil {
		return nil, err
	}
	name, _ := desc["name"].(string)
	mediaType, _ := desc["type"].(string)
	return NewUploadedFile(tmp, size, UploadError(code), name, mediaType)
}

func descIndex(v any, i int) any {
	if arr, ok := v.([]any); ok && i < len(arr) {
		return arr[i]
	}
	return v
}

func descInt(key, field string, v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case UploadError:
		return int64(t), nil
	}
	return 0, fmt.Errorf("%w: upload entry %q has a non-numeric %s", ErrInvalidArgument, key, field)
}
