package charsets

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
	}{
		{"utf8", "utf-8"},
		{"UTF-8", "utf-8"},
		{" Latin1 ", "iso-8859-1"},
		{"ascii", "iso-8859-1"},
		{"Shift_JIS", "shift_jis"},
		{"GB-18030", "gb18030"},
		{"cp1251", "windows-1251"},
		{"UTF-16LE", "utf-16le"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, canonical, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.NotNil(t, e)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func TestLookupFallsBackToLabelSets(t *testing.T) {
	// not in the table, known to the WHATWG label set
	e, _, err := Lookup("x-mac-cyrillic")
	require.NoError(t, err)
	assert.Equal(t, charmap.MacintoshCyrillic, e)
}

func TestLookupUnknown(t *testing.T) {
	for _, name := range []string{"cp99999", "", "definitely-not-a-charset"} {
		_, _, err := Lookup(name)
		require.Error(t, err, name)

		var unknown *UnknownEncodingError
		assert.True(t, errors.As(err, &unknown))
		assert.Equal(t, name, unknown.Name)
		assert.ErrorIs(t, err, ErrUnknownEncoding)
	}
}

func TestLookupRejectsReplacement(t *testing.T) {
	for _, name := range []string{"ISO-2022-KR", "csiso2022kr", "ISO-2022-CN", "iso-2022-cn-ext", "hz-gb-2312", "replacement"} {
		e, _, err := Lookup(name)
		assert.Nil(t, e, name)
		assert.ErrorIs(t, err, ErrUnknownEncoding, name)
	}
}

func TestDecoderSplitMultiByte(t *testing.T) {
	t.Run("UTF8", func(t *testing.T) {
		d, err := NewDecoder("utf8", Options{})
		require.NoError(t, err)

		// "é" is 0xC3 0xA9
		s, err := d.Write([]byte{'c', 'a', 'f', 0xC3})
		require.NoError(t, err)
		assert.Equal(t, "caf", s)

		s, err = d.Write([]byte{0xA9, '!'})
		require.NoError(t, err)
		assert.Equal(t, "é!", s)

		s, err = d.End()
		require.NoError(t, err)
		assert.Equal(t, "", s)
	})

	t.Run("ShiftJIS", func(t *testing.T) {
		d, err := NewDecoder("shift_jis", Options{})
		require.NoError(t, err)

		var out string
		for _, chunk := range [][]byte{{0x93}, {0xFA, 0x96}, {0x7B}} {
			s, err := d.Write(chunk)
			require.NoError(t, err)
			out += s
		}
		s, err := d.End()
		require.NoError(t, err)
		assert.Equal(t, "日本", out+s)
	})

	t.Run("TruncatedAtEnd", func(t *testing.T) {
		d, err := NewDecoder("utf-8", Options{})
		require.NoError(t, err)

		s, err := d.Write([]byte{'o', 'k', 0xE6, 0x97})
		require.NoError(t, err)
		assert.Equal(t, "ok", s)

		s, err = d.End()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(s, "\uFFFD"), "got %q", s)
	})
}

func TestDecoderInvalidBytes(t *testing.T) {
	d, err := NewDecoder("utf8", Options{})
	require.NoError(t, err)

	s, err := d.Write([]byte{0xBF, 'T', 'e', 's', 't'})
	require.NoError(t, err)
	assert.Equal(t, "\uFFFDTest", s)
}

func TestDecoderStripBOM(t *testing.T) {
	input := []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}

	d, err := NewDecoder("utf8", Options{StripBOM: true})
	require.NoError(t, err)
	s, err := d.Write(input[:1])
	require.NoError(t, err)
	assert.Equal(t, "", s)
	s, err = d.Write(input[1:])
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	d, err = NewDecoder("utf8", Options{StripBOM: false})
	require.NoError(t, err)
	s, err = d.Write(input)
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFhi", s)
}

func TestDecoderStripBOMOnlyLeading(t *testing.T) {
	d, err := NewDecoder("utf16le", Options{StripBOM: true})
	require.NoError(t, err)

	s, err := d.Write([]byte{0xFF, 0xFE, 'a', 0x00})
	require.NoError(t, err)
	assert.Equal(t, "a", s)

	s, err = d.Write([]byte{0xFF, 0xFE, 'b', 0x00})
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFb", s)
}

func TestDecoderEnded(t *testing.T) {
	d, err := NewDecoder("latin1", Options{})
	require.NoError(t, err)

	_, err = d.End()
	require.NoError(t, err)

	_, err = d.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrDecoderEnded)
	_, err = d.End()
	assert.ErrorIs(t, err, ErrDecoderEnded)
}

func TestProviderFunc(t *testing.T) {
	var asked string
	p := ProviderFunc(func(name string, opts Options) (Decoder, error) {
		asked = name
		return NewTransformDecoder(japanese.EUCJP.NewDecoder(), opts), nil
	})

	d, err := p.Decoder("whatever", Options{})
	require.NoError(t, err)
	assert.Equal(t, "whatever", asked)

	s, err := d.Write([]byte{0xC6, 0xFC, 0xCB, 0xDC})
	require.NoError(t, err)
	assert.Equal(t, "日本", s)
}
