//go:build cgo

package iconv

import (
	"errors"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/modfin/autodecode/charsets"
	iconv "gopkg.in/iconv.v1"
)

const target = "UTF-8"

// Provider opens an iconv conversion descriptor per decoder.
type Provider struct{}

func (Provider) Decoder(name string, opts charsets.Options) (charsets.Decoder, error) {
	cd, err := iconv.Open(target, name)
	if err != nil {
		return nil, &charsets.UnknownEncodingError{Name: name}
	}
	return &decoder{cd: cd, bom: charsets.BOMStripper{Enabled: opts.StripBOM}}, nil
}

type decoder struct {
	cd      iconv.Iconv
	pending []byte
	bom     charsets.BOMStripper
	ended   bool
}

func (d *decoder) Write(p []byte) (string, error) {
	if d.ended {
		return "", charsets.ErrDecoderEnded
	}
	src := append(d.pending, p...)
	d.pending = nil
	s, err := d.convert(src, false)
	if err != nil {
		return "", err
	}
	return d.bom.Strip(s), nil
}

func (d *decoder) End() (string, error) {
	if d.ended {
		return "", charsets.ErrDecoderEnded
	}
	d.ended = true
	defer d.cd.Close()

	src := d.pending
	d.pending = nil
	s, err := d.convert(src, true)
	if err != nil {
		return "", err
	}
	return d.bom.Strip(s), nil
}

// convert runs src through iconv. Invalid sequences become U+FFFD, an
// incomplete trailing sequence is kept for the next call unless final.
func (d *decoder) convert(src []byte, final bool) (string, error) {
	var sb strings.Builder
	for len(src) > 0 {
		// 4 output bytes per input byte covers every conversion to UTF-8
		out, inleft, err := d.cd.Conv(src, make([]byte, 4*len(src)+16))
		sb.Write(out)
		src = src[len(src)-inleft:]

		switch {
		case err == nil:
			src = nil
		case errors.Is(err, syscall.EINVAL):
			if final {
				sb.WriteRune(utf8.RuneError)
			} else {
				d.pending = append([]byte(nil), src...)
			}
			src = nil
		case errors.Is(err, syscall.EILSEQ):
			sb.WriteRune(utf8.RuneError)
			if len(src) > 0 {
				src = src[1:]
			}
		default:
			return sb.String(), err
		}
	}
	return sb.String(), nil
}
