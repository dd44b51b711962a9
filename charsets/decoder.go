package charsets

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/text/transform"
)

// ErrDecoderEnded is returned when a Decoder is used after End.
var ErrDecoderEnded = errors.New("decoder already ended")

const bom = "\uFEFF"

// Options tune a Decoder.
type Options struct {
	// StripBOM removes a leading byte order mark from the decoded text.
	StripBOM bool
}

// Decoder converts a stream of bytes to UTF-8 text one chunk at a time.
// Incomplete multi-byte sequences at the end of a chunk are carried over to
// the next Write. End flushes whatever is still pending.
type Decoder interface {
	Write(p []byte) (string, error)
	End() (string, error)
}

// Provider hands out decoders by encoding name.
type Provider interface {
	Decoder(name string, opts Options) (Decoder, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(name string, opts Options) (Decoder, error)

func (f ProviderFunc) Decoder(name string, opts Options) (Decoder, error) {
	return f(name, opts)
}

// TextProvider serves decoders from the golang.org/x/text encodings known to Lookup.
type TextProvider struct{}

func (TextProvider) Decoder(name string, opts Options) (Decoder, error) {
	e, _, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return NewTransformDecoder(e.NewDecoder(), opts), nil
}

// Default is the provider used when none is configured.
var Default Provider = TextProvider{}

// NewDecoder returns a decoder for name from the Default provider.
func NewDecoder(name string, opts Options) (Decoder, error) {
	return Default.Decoder(name, opts)
}

type transformDecoder struct {
	out   bytes.Buffer
	w     *transform.Writer
	bom   BOMStripper
	ended bool
}

// NewTransformDecoder wraps t, which must produce UTF-8, as a Decoder.
func NewTransformDecoder(t transform.Transformer, opts Options) Decoder {
	d := &transformDecoder{bom: BOMStripper{Enabled: opts.StripBOM}}
	d.w = transform.NewWriter(&d.out, t)
	return d
}

func (d *transformDecoder) Write(p []byte) (string, error) {
	if d.ended {
		return "", ErrDecoderEnded
	}
	if _, err := d.w.Write(p); err != nil {
		return "", err
	}
	return d.drain(), nil
}

func (d *transformDecoder) End() (string, error) {
	if d.ended {
		return "", ErrDecoderEnded
	}
	d.ended = true
	if err := d.w.Close(); err != nil {
		return "", err
	}
	return d.drain(), nil
}

func (d *transformDecoder) drain() string {
	s := d.out.String()
	d.out.Reset()
	return d.bom.Strip(s)
}

// BOMStripper removes a byte order mark from the first non-empty text it sees.
type BOMStripper struct {
	Enabled bool
	seen    bool
}

func (b *BOMStripper) Strip(s string) string {
	if !b.Enabled || b.seen || s == "" {
		return s
	}
	b.seen = true
	return strings.TrimPrefix(s, bom)
}
