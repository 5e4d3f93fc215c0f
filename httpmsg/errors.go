package httpmsg

import "errors"

var (
	ErrInvalidArgument   = errors.New("httpmsg: invalid argument")
	ErrStreamDetached    = errors.New("httpmsg: no underlying stream")
	ErrStreamNotReadable = errors.New("httpmsg: stream not readable")
	ErrStreamNotWritable = errors.New("httpmsg: stream not writable")
	ErrStreamNotSeekable = errors.New("httpmsg: stream not seekable")
	ErrAlreadyMoved      = errors.New("httpmsg: uploaded file already moved")
	ErrUploadFailed      = errors.New("httpmsg: upload did not complete")
)
