package source

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Classification tells how a source descriptor is read
type Classification int

const (
	// Literal sources are JSON text and are used as-is
	Literal Classification = iota
	// File sources are read from the local filesystem
	File
	// Network sources are requested over HTTP(S)
	Network
)

func (c Classification) String() string {
	switch c {
	case Literal:
		return "literal"
	case File:
		return "file"
	case Network:
		return "network"
	default:
		return "unknown"
	}
}

// uriChars are the ASCII characters RFC 3986 allows outside of percent
// escapes, minus the brackets which are only legal in the authority.
const uriChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	"-._~:/?#@!$&'()*+,;="

// Classify decides whether src is literal JSON or an address. Backslashes
// are treated as path separators so Windows paths read as addresses. Any
// text that is a syntactically valid URI reference is an address, which
// means a literal such as 42 is taken for a relative file path.
func Classify(src string) (Classification, *url.URL) {
	normalized := strings.ReplaceAll(src, `\`, "/")
	if strings.TrimSpace(normalized) == "" || !legalURI(normalized) {
		return Literal, nil
	}

	addr, err := url.Parse(normalized)
	if err != nil {
		return Literal, nil
	}
	return classifyURL(addr), addr
}

func classifyURL(addr *url.URL) Classification {
	switch {
	case addr.Scheme == "", strings.EqualFold(addr.Scheme, "file"):
		return File
	case len(addr.Scheme) == 1:
		// Drive letter, e.g. C:/data/doc.json
		return File
	default:
		return Network
	}
}

// filePath turns a file address back into a filesystem path
func filePath(addr *url.URL) string {
	switch {
	case len(addr.Scheme) == 1:
		return strings.ToUpper(addr.Scheme) + ":" + addr.Path
	case addr.Opaque != "":
		if p, err := url.PathUnescape(addr.Opaque); err == nil {
			return p
		}
		return addr.Opaque
	default:
		return addr.Path
	}
}

func legalURI(s string) bool {
	authStart, authEnd := authority(s)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '%':
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return false
			}
			i += 3
			continue
		case r == '[' || r == ']':
			if i < authStart || i >= authEnd {
				return false
			}
		case r < utf8.RuneSelf:
			if !strings.ContainsRune(uriChars, r) {
				return false
			}
		case r == utf8.RuneError, unicode.IsSpace(r), unicode.IsControl(r):
			return false
		}
		i += size
	}
	return true
}

// authority returns the byte range of the authority component, or -1, -1
// when there is none.
func authority(s string) (int, int) {
	offset := 0
	if i := strings.IndexByte(s, ':'); i > 0 && validScheme(s[:i]) {
		offset = i + 1
	}
	if !strings.HasPrefix(s[offset:], "//") {
		return -1, -1
	}

	start := offset + 2
	end := len(s)
	if j := strings.IndexAny(s[start:], "/?#"); j >= 0 {
		end = start + j
	}
	return start, end
}

func validScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
