//go:build !cgo

package iconv

import (
	"errors"

	"github.com/modfin/autodecode/charsets"
)

// ErrUnavailable is returned by Provider when built without cgo.
var ErrUnavailable = errors.New("iconv: not available without cgo")

type Provider struct{}

func (Provider) Decoder(name string, opts charsets.Options) (charsets.Decoder, error) {
	return nil, errors.Join(ErrUnavailable, &charsets.UnknownEncodingError{Name: name})
}
