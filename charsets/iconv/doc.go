// Package iconv provides a charsets.Provider backed by the system iconv
// library. It accepts whatever names the platform iconv understands, which is
// usually a wider set than the pure Go tables. Without cgo every lookup fails.
package iconv
