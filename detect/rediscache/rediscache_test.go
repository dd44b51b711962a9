package rediscache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/modfin/autodecode/detect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn implements just enough of GET and SET.
type fakeConn struct {
	data    map[string][]byte
	lastSet []interface{}
	fail    error
}

func (f *fakeConn) Close() error { return nil }
func (f *fakeConn) Err() error   { return nil }

func (f *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	switch cmd {
	case "GET":
		v, ok := f.data[args[0].(string)]
		if !ok {
			return nil, nil
		}
		return v, nil
	case "SET":
		f.lastSet = args
		f.data[args[0].(string)] = args[1].([]byte)
		return "OK", nil
	}
	return nil, fmt.Errorf("unexpected command %q", cmd)
}

func (f *fakeConn) Send(string, ...interface{}) error { return nil }
func (f *fakeConn) Flush() error                      { return nil }
func (f *fakeConn) Receive() (interface{}, error)     { return nil, nil }

type fakePool struct{ conn *fakeConn }

func (p fakePool) Get() redis.Conn { return p.conn }

func TestCacheRoundTrip(t *testing.T) {
	conn := &fakeConn{data: map[string][]byte{}}
	c := New(fakePool{conn}, WithPrefix("t:"))

	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	want := detect.Result{Encoding: "Shift_JIS", Confidence: 0.8, Language: "ja"}
	require.NoError(t, c.Set("k", want))
	assert.Contains(t, conn.data, "t:k")
	assert.Len(t, conn.lastSet, 2)

	got, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCacheTTL(t *testing.T) {
	conn := &fakeConn{data: map[string][]byte{}}
	c := New(fakePool{conn}, WithTTL(2*time.Second))

	require.NoError(t, c.Set("k", detect.Result{Encoding: "UTF-8"}))
	require.Len(t, conn.lastSet, 4)
	assert.Equal(t, defaultPrefix+"k", conn.lastSet[0])
	assert.Equal(t, "PX", conn.lastSet[2])
	assert.Equal(t, int64(2000), conn.lastSet[3])
}

func TestCacheErrors(t *testing.T) {
	conn := &fakeConn{data: map[string][]byte{}, fail: errors.New("down")}
	c := New(fakePool{conn})

	_, _, err := c.Get("k")
	assert.ErrorContains(t, err, "down")
	assert.ErrorContains(t, c.Set("k", detect.Result{}), "down")
}

func TestCacheBehindDetector(t *testing.T) {
	conn := &fakeConn{data: map[string][]byte{}}
	d := detect.NewCached(detect.NewChardet(), New(fakePool{conn}))

	r, err := d.Detect([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, detect.ASCII, r.Encoding)
	assert.Len(t, conn.data, 1)

	r, err = d.Detect([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, detect.ASCII, r.Encoding)
}
