package autodecode

import "bytes"

// prefix holds the chunks seen before the encoding is known. Chunks are
// copied on arrival since callers may reuse their buffers.
type prefix struct {
	bufs [][]byte
	n    int
}

func (p *prefix) Len() int {
	return p.n
}

func (p *prefix) Write(b []byte) {
	if len(b) == 0 {
		return
	}
	p.bufs = append(p.bufs, bytes.Clone(b))
	p.n += len(b)
}

func (p *prefix) Bytes() []byte {
	result := make([]byte, p.n)
	off := 0
	for _, b := range p.bufs {
		off += copy(result[off:], b)
	}
	return result
}
