package autodecode

import (
	"bytes"
	"strings"
)

// Collect gathers all text of the stream and calls cb exactly once: with the
// full text when the stream ends, or with the error and no text when it fails.
func (s *Stream) Collect(cb func(err error, text string)) *Stream {
	var sb strings.Builder
	// Subscribe only fails for non-func handlers
	_ = s.Subscribe(Handlers{
		OnData: func(text string) {
			sb.WriteString(text)
		},
		OnError: func(err error) {
			cb(err, "")
		},
		OnEnd: func() {
			cb(nil, sb.String())
		},
	})
	return s
}

// DecodeBytes decodes b in one go, detecting its encoding the same way a
// Stream would.
func DecodeBytes(b []byte, opts ...Option) (string, error) {
	s, err := New(opts...)
	if err != nil {
		return "", err
	}

	var text string
	var failure error
	s.Collect(func(err error, t string) {
		text, failure = t, err
	})

	if _, err := s.Consume(bytes.NewReader(b)); err != nil && failure == nil {
		failure = err
	}
	return text, failure
}
