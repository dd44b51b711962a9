// Package autodecode turns a byte stream of unknown character encoding into
// UTF-8 text as it arrives.
//
// A Stream buffers the first ConsumeSize bytes, asks a detector once what
// encoding they are in, and from then on decodes everything with that one
// encoding. When the detector has no useful answer the configured default
// encoding is used instead.
//
//	s, err := autodecode.New(autodecode.WithDefaultEncoding("windows-1252"))
//	if err != nil {
//		return err
//	}
//	s.Collect(func(err error, text string) { ... })
//	_, err = s.Consume(conn)
package autodecode

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/modfin/autodecode/charsets"
	"github.com/modfin/autodecode/detect"
)

// state is one of *buffering, *decoding or *finished.
type state interface {
	name() string
}

// buffering collects the prefix until detection can run.
type buffering struct {
	prefix prefix
}

// decoding forwards every chunk straight to the decoder.
type decoding struct {
	decoder charsets.Decoder
}

// finished is terminal. err is nil after a normal Close.
type finished struct {
	err error
}

func (*buffering) name() string { return "buffering" }
func (*decoding) name() string  { return "decoding" }
func (*finished) name() string  { return "finished" }

func (f *finished) terminal() error {
	if f.err == nil {
		return ErrClosed
	}
	return fmt.Errorf("%w: %w", ErrClosed, f.err)
}

// Stream is a detect-then-decode transformer from bytes to UTF-8 text.
// Text is delivered through Subscribe, Collect or Options.Output.
//
// A Stream is not safe for concurrent use. Event handlers run synchronously
// inside Write and Close and must not call back into the Stream.
type Stream struct {
	opts     Options
	log      *slog.Logger
	bus      EventBus.Bus
	state    state
	encoding string
}

// New creates a Stream ready to receive bytes.
func New(opts ...Option) (*Stream, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(o)
}

func NewWithOptions(o Options) (*Stream, error) {
	if err := o.setDefaults(); err != nil {
		return nil, err
	}
	return &Stream{
		opts:  o,
		log:   streamLogger(o.Log, &o),
		bus:   EventBus.New(),
		state: &buffering{},
	}, nil
}

// Encoding returns the encoding the stream decodes with, or "" while it is
// still buffering.
func (s *Stream) Encoding() string {
	return s.encoding
}

// Write feeds p into the stream. Before the encoding is resolved p is only
// buffered; afterwards it is decoded immediately. p is never retained.
func (s *Stream) Write(p []byte) (int, error) {
	switch st := s.state.(type) {
	case *finished:
		return 0, st.terminal()

	case *decoding:
		text, err := st.decoder.Write(p)
		if err != nil {
			return 0, s.fail(fmt.Errorf("autodecode: decode %s: %w", s.encoding, err))
		}
		if err := s.emit(text); err != nil {
			return 0, err
		}
		return len(p), nil

	case *buffering:
		st.prefix.Write(p)
		if st.prefix.Len() < s.opts.ConsumeSize {
			return len(p), nil
		}
		if err := s.resolve(st); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	panic(fmt.Sprintf("autodecode: unexpected state %T", s.state))
}

// Feed accepts a chunk from an untyped source. Anything but []byte fails the
// stream with ErrInvalidInput.
func (s *Stream) Feed(chunk any) error {
	p, ok := chunk.([]byte)
	if !ok {
		if f, done := s.state.(*finished); done {
			return f.terminal()
		}
		return s.fail(fmt.Errorf("%w, got %T", ErrInvalidInput, chunk))
	}
	_, err := s.Write(p)
	return err
}

// Close ends the input. If detection has not run yet it runs now on whatever
// was buffered, then the decoder is flushed and the end event is published.
func (s *Stream) Close() error {
	if b, ok := s.state.(*buffering); ok {
		if err := s.resolve(b); err != nil {
			return err
		}
	}

	switch st := s.state.(type) {
	case *finished:
		return st.terminal()
	case *decoding:
		text, err := st.decoder.End()
		if err != nil {
			return s.fail(fmt.Errorf("autodecode: flush %s: %w", s.encoding, err))
		}
		if err := s.emit(text); err != nil {
			return err
		}
		s.state = &finished{}
		s.log.Debug("stream ended", "encoding", s.encoding)
		s.bus.Publish(topicEnd)
		return nil
	}
	panic(fmt.Sprintf("autodecode: unexpected state %T", s.state))
}

// Fail aborts the stream because the upstream source failed. The error is
// published and nothing else is decoded or flushed. Failing a finished stream
// does nothing. A nil err is reported as ErrAborted.
func (s *Stream) Fail(err error) {
	if _, done := s.state.(*finished); done {
		return
	}
	if err == nil {
		err = ErrAborted
	}
	s.fail(err)
}

// resolve is the only way out of the buffering state. It picks the encoding,
// opens the decoder and replays the buffered prefix through it.
func (s *Stream) resolve(b *buffering) error {
	if s.state != state(b) {
		panic("autodecode: resolve called outside the buffering state")
	}

	data := b.prefix.Bytes()
	b.prefix = prefix{}

	name := s.detect(data)
	dec, err := s.opts.Provider.Decoder(name, charsets.Options{StripBOM: *s.opts.StripBOM})
	if err != nil {
		return s.fail(fmt.Errorf("autodecode: %w", err))
	}

	s.encoding = name
	s.state = &decoding{decoder: dec}
	s.log.Debug("encoding resolved", "encoding", name, "prefix", len(data))

	text, err := dec.Write(data)
	if err != nil {
		return s.fail(fmt.Errorf("autodecode: decode %s: %w", name, err))
	}
	return s.emit(text)
}

// detect returns the detected encoding, or the default when detection fails
// or only finds ASCII.
func (s *Stream) detect(data []byte) string {
	res, err := detect.Run(s.opts.Detector, s.opts.MinConfidence, data)
	switch {
	case err != nil:
		s.log.Debug("detection failed, using default", "err", err)
	case res.Encoding == "":
		s.log.Debug("nothing detected, using default", "confidence", res.Confidence, "size", len(data))
	case strings.EqualFold(res.Encoding, detect.ASCII):
		s.log.Debug("detected ascii, using default", "size", len(data))
	default:
		s.log.Debug("detected", "encoding", res.Encoding, "confidence", res.Confidence, "language", res.Language)
		return res.Encoding
	}
	return s.opts.DefaultEncoding
}

func (s *Stream) emit(text string) error {
	if text == "" {
		return nil
	}
	if s.opts.Output != nil {
		if _, err := io.WriteString(s.opts.Output, text); err != nil {
			return s.fail(fmt.Errorf("autodecode: write output: %w", err))
		}
	}
	s.bus.Publish(topicData, text)
	return nil
}

func (s *Stream) fail(err error) error {
	prev := s.state.name()
	s.state = &finished{err: err}
	s.log.Error("stream failed", "state", prev, "err", err)
	s.bus.Publish(topicError, err)
	return err
}
