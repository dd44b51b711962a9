package autodecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefix(t *testing.T) {
	var p prefix
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, []byte{}, p.Bytes())

	chunk := []byte("hello ")
	p.Write(chunk)
	p.Write(nil)
	p.Write([]byte("world"))

	// the caller reusing its buffer must not change what was buffered
	copy(chunk, "HELLO ")

	assert.Equal(t, 11, p.Len())
	assert.Equal(t, "hello world", string(p.Bytes()))
	assert.Len(t, p.bufs, 2)
}
