package autodecode

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/modfin/autodecode/charsets"
	"github.com/modfin/autodecode/detect"
)

const defaultEncoding = "utf8"
const defaultConsumeSize = 128

// Options is the configuration of a Stream. It is copied when the Stream is
// created and never changes afterwards.
type Options struct {
	// DefaultEncoding is used whenever detection gives no usable answer.
	// Defaults to "utf8"
	DefaultEncoding string `json:"default_encoding"`

	// MinConfidence is the confidence the detector must reach to name an
	// encoding. Nil leaves the detector's own threshold alone.
	MinConfidence *float64 `json:"min_confidence,omitempty"`

	// ConsumeSize is how many bytes are buffered before detection runs.
	// Defaults to 128
	ConsumeSize int `json:"consume_size"`

	// StripBOM removes a leading byte order mark from the text. Nil means true.
	StripBOM *bool `json:"strip_bom,omitempty"`

	// Detector defaults to detect.Default
	Detector detect.Detector `json:"-"`

	// Provider defaults to charsets.Default
	Provider charsets.Provider `json:"-"`

	// Output, when set, receives every piece of decoded text.
	Output io.Writer `json:"-"`

	Log *slog.Logger `json:"-"`
}

// setDefaults fills in everything that was not configured and validates the result.
func (o *Options) setDefaults() error {
	if o.DefaultEncoding == "" {
		o.DefaultEncoding = defaultEncoding
	}
	if o.ConsumeSize == 0 {
		o.ConsumeSize = defaultConsumeSize
	}
	if o.StripBOM == nil {
		strip := true
		o.StripBOM = &strip
	}
	if o.Detector == nil {
		o.Detector = detect.Default
	}
	if o.Provider == nil {
		o.Provider = charsets.Default
	}
	if o.Log == nil {
		o.Log = noopLogger()
	}
	return o.validate()
}

func (o *Options) validate() error {
	if o.ConsumeSize < 0 {
		return fmt.Errorf("%w: consume size must be positive, got %d", ErrInvalidOptions, o.ConsumeSize)
	}
	if o.MinConfidence != nil && (*o.MinConfidence < 0 || *o.MinConfidence > 1) {
		return fmt.Errorf("%w: min confidence must be within [0, 1], got %v", ErrInvalidOptions, *o.MinConfidence)
	}
	return nil
}

type Option func(*Options)

// WithOptions replaces the whole configuration, typically one read from a file.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		*dst = o
	}
}

func WithDefaultEncoding(name string) Option {
	return func(o *Options) {
		o.DefaultEncoding = name
	}
}

func WithMinConfidence(v float64) Option {
	return func(o *Options) {
		o.MinConfidence = &v
	}
}

func WithConsumeSize(n int) Option {
	return func(o *Options) {
		o.ConsumeSize = n
	}
}

func WithStripBOM(strip bool) Option {
	return func(o *Options) {
		o.StripBOM = &strip
	}
}

func WithDetector(d detect.Detector) Option {
	return func(o *Options) {
		o.Detector = d
	}
}

func WithProvider(p charsets.Provider) Option {
	return func(o *Options) {
		o.Provider = p
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Log = l
	}
}
