package autodecode

import (
	"bytes"
	"context"
	"errors"
	"io"
)

const chunkSize = 32 * 1024

// Consume reads r until EOF, writing every chunk into the stream, and closes
// the stream. A read error fails the stream instead.
func (s *Stream) Consume(r io.Reader) (int64, error) {
	return s.Pump(context.Background(), r)
}

// Pump is Consume with cancellation. When ctx is done before r is exhausted
// the stream fails with ctx.Err().
func (s *Stream) Pump(ctx context.Context, r io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			s.Fail(err)
			return read, err
		}

		n, err := r.Read(buf)
		read += int64(n)
		if n > 0 {
			if _, werr := s.Write(buf[:n]); werr != nil {
				return read, werr
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			return read, s.Close()
		case err != nil:
			s.Fail(err)
			return read, err
		}
	}
}

// Copy decodes src into dst as UTF-8 and returns the number of bytes read
// from src.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, opts ...Option) (int64, error) {
	s, err := New(append(opts[:len(opts):len(opts)], WithOutput(dst))...)
	if err != nil {
		return 0, err
	}
	return s.Pump(ctx, src)
}

// Reader is an io.Reader of UTF-8 text decoded from an underlying reader of
// unknown encoding.
type Reader struct {
	src    io.Reader
	stream *Stream
	out    bytes.Buffer
	chunk  []byte
	err    error
}

// NewReader wraps r. Any Output in opts is replaced by the Reader itself.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	rd := &Reader{src: r, chunk: make([]byte, chunkSize)}
	s, err := New(append(opts[:len(opts):len(opts)], WithOutput(&rd.out))...)
	if err != nil {
		return nil, err
	}
	rd.stream = s
	return rd, nil
}

// Encoding returns the resolved encoding, "" until enough was read.
func (r *Reader) Encoding() string {
	return r.stream.Encoding()
}

func (r *Reader) Read(p []byte) (int, error) {
	for r.out.Len() == 0 && r.err == nil {
		r.fill()
	}
	if r.out.Len() > 0 {
		return r.out.Read(p)
	}
	return 0, r.err
}

func (r *Reader) fill() {
	n, err := r.src.Read(r.chunk)
	if n > 0 {
		if _, werr := r.stream.Write(r.chunk[:n]); werr != nil {
			r.err = werr
			return
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		if cerr := r.stream.Close(); cerr != nil {
			r.err = cerr
			return
		}
		r.err = io.EOF
	case err != nil:
		r.stream.Fail(err)
		r.err = err
	}
}
