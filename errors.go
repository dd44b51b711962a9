package autodecode

import (
	"errors"

	"github.com/modfin/autodecode/charsets"
)

var (
	// ErrInvalidInput is returned for chunks that are not bytes.
	ErrInvalidInput = errors.New("autodecode: input chunks must be []byte")

	// ErrClosed is returned when a finished Stream is written to or closed again.
	ErrClosed = errors.New("autodecode: stream is finished")

	// ErrAborted is published when a Stream is failed without a cause.
	ErrAborted = errors.New("autodecode: stream aborted")

	ErrInvalidOptions = errors.New("autodecode: invalid options")

	// ErrUnknownEncoding matches failures to find a decoder for the resolved
	// encoding. Use errors.As with *UnknownEncodingError for the name.
	ErrUnknownEncoding = charsets.ErrUnknownEncoding
)

type UnknownEncodingError = charsets.UnknownEncodingError
