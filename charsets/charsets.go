// Package charsets resolves encoding names to incremental decoders that turn
// bytes in that encoding into UTF-8 text.
package charsets

import (
	"errors"
	"fmt"
	"strings"

	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownEncoding is matched by every *UnknownEncodingError.
var ErrUnknownEncoding = errors.New("unknown encoding")

// UnknownEncodingError is returned when no decoder exists for an encoding name.
type UnknownEncodingError struct {
	Name string
}

func (e *UnknownEncodingError) Error() string {
	return fmt.Sprintf("unknown encoding %q", e.Name)
}

func (e *UnknownEncodingError) Unwrap() error {
	return ErrUnknownEncoding
}

// Lookup returns the encoding registered for name along with its canonical
// name. Names are matched case-insensitively against the built-in table, then
// its aliases, then the WHATWG label set and finally the IANA registry.
func Lookup(name string) (encoding.Encoding, string, error) {
	key := normalize(name)
	if e, ok := charsetEncodings[key]; ok {
		return e, key, nil
	}
	if alias, ok := charsetAliases[key]; ok {
		if e, ok := charsetEncodings[alias]; ok {
			return e, alias, nil
		}
	}
	if key == "" {
		return nil, "", &UnknownEncodingError{Name: name}
	}
	// WHATWG maps ISO-2022-KR/CN and HZ to the replacement encoding, which
	// collapses the whole input into one U+FFFD.
	if e, canonical := htmlcharset.Lookup(key); e != nil && e != encoding.Replacement {
		return e, strings.ToLower(canonical), nil
	}
	if e, err := ianaindex.IANA.Encoding(key); err == nil && e != nil && e != encoding.Replacement {
		canonical, err := ianaindex.IANA.Name(e)
		if err != nil {
			canonical = key
		}
		return e, strings.ToLower(canonical), nil
	}
	return nil, "", &UnknownEncodingError{Name: name}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var charsetEncodings = map[string]encoding.Encoding{
	// ISO character sets
	"iso-8859-1":  charmap.ISO8859_1,
	"iso-8859-2":  charmap.ISO8859_2,
	"iso-8859-3":  charmap.ISO8859_3,
	"iso-8859-4":  charmap.ISO8859_4,
	"iso-8859-5":  charmap.ISO8859_5,
	"iso-8859-6":  charmap.ISO8859_6,
	"iso-8859-7":  charmap.ISO8859_7,
	"iso-8859-8":  charmap.ISO8859_8,
	"iso-8859-9":  charmap.ISO8859_9,
	"iso-8859-10": charmap.ISO8859_10,
	"iso-8859-13": charmap.ISO8859_13,
	"iso-8859-14": charmap.ISO8859_14,
	"iso-8859-15": charmap.ISO8859_15,
	"iso-8859-16": charmap.ISO8859_16,

	// Windows character sets
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"windows-1255": charmap.Windows1255,
	"windows-1256": charmap.Windows1256,
	"windows-1257": charmap.Windows1257,
	"windows-1258": charmap.Windows1258,
	"windows-874":  charmap.Windows874,

	// DOS character sets
	"ibm437":    charmap.CodePage437,
	"ibm850":    charmap.CodePage850,
	"ibm852":    charmap.CodePage852,
	"ibm855":    charmap.CodePage855,
	"ibm858":    charmap.CodePage858,
	"ibm866":    charmap.CodePage866,
	"koi8r":     charmap.KOI8R,
	"koi8u":     charmap.KOI8U,
	"macintosh": charmap.Macintosh,

	// Japanese character sets
	"shift_jis":   japanese.ShiftJIS,
	"shift-jis":   japanese.ShiftJIS,
	"sjis":        japanese.ShiftJIS,
	"euc-jp":      japanese.EUCJP,
	"eucjp":       japanese.EUCJP,
	"iso-2022-jp": japanese.ISO2022JP,
	"iso2022jp":   japanese.ISO2022JP,

	// Korean character sets
	"euc-kr": korean.EUCKR,
	"euckr":  korean.EUCKR,

	// Chinese character sets
	"gb2312":  simplifiedchinese.GB18030, // GB18030 is a superset of GB2312
	"gbk":     simplifiedchinese.GBK,
	"gb18030": simplifiedchinese.GB18030,
	"big5":    traditionalchinese.Big5,
	"big-5":   traditionalchinese.Big5,

	// Unicode encodings
	"utf-8":    unicode.UTF8,
	"utf-16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf-16le": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16":   unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-32be": utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	"utf-32le": utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"utf-32":   utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
}

// Alias mappings for non-standard charset names, including the labels the
// detector reports.
var charsetAliases = map[string]string{
	"ascii":      "iso-8859-1", // bytes >= 0x80 decode as Latin-1, not U+FFFD
	"us-ascii":   "iso-8859-1",
	"latin1":     "iso-8859-1",
	"latin2":     "iso-8859-2",
	"latin3":     "iso-8859-3",
	"latin4":     "iso-8859-4",
	"latin5":     "iso-8859-9",
	"latin6":     "iso-8859-10",
	"latin7":     "iso-8859-13",
	"latin8":     "iso-8859-14",
	"latin9":     "iso-8859-15",
	"latin10":    "iso-8859-16",
	"binary":     "iso-8859-1",
	"cp1250":     "windows-1250",
	"cp1251":     "windows-1251",
	"cp1252":     "windows-1252",
	"cp1253":     "windows-1253",
	"cp1254":     "windows-1254",
	"cp1255":     "windows-1255",
	"cp1256":     "windows-1256",
	"cp1257":     "windows-1257",
	"cp1258":     "windows-1258",
	"cp874":      "windows-874",
	"ms874":      "windows-874",
	"tis-620":    "windows-874",
	"ms-ansi":    "windows-1252",
	"cp437":      "ibm437",
	"cp850":      "ibm850",
	"cp852":      "ibm852",
	"cp855":      "ibm855",
	"cp858":      "ibm858",
	"cp866":      "ibm866",
	"ms_kanji":   "shift-jis",
	"csshiftjis": "shift-jis",
	"x-sjis":     "shift-jis",
	"ms932":      "shift-jis",
	"cp932":      "shift-jis",
	"5601":       "euc-kr",
	"ks_c_5601":  "euc-kr",
	"ansi936":    "gb2312",
	"cp936":      "gbk",
	"ms936":      "gbk",
	"gb-18030":   "gb18030",
	"ansi950":    "big5",
	"cp950":      "big5",
	"koi8-r":     "koi8r",
	"koi8-u":     "koi8u",
	"utf8":       "utf-8",
	"utf16":      "utf-16",
	"utf16le":    "utf-16le",
	"utf16be":    "utf-16be",
	"ucs2":       "utf-16le",
	"ucs-2":      "utf-16le",
	"utf32":      "utf-32",
	"utf32le":    "utf-32le",
	"utf32be":    "utf-32be",
}
