package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mcncl/jsonassert/internal/errors"
	"github.com/mcncl/jsonassert/internal/models"
)

const (
	valueTerminators = ",}]{["
	keyTerminators   = ":,}]{["
)

// scanner reads relaxed JSON: unquoted keys and values, single-quoted
// strings and superfluous commas.
type scanner struct {
	data string
	pos  int
}

func parsePermissive(text string) (models.Value, error) {
	s := &scanner{data: text}
	v, err := s.parseValue(true)
	if err != nil {
		return models.Value{}, err
	}
	s.skipSpace()
	if !s.eof() {
		return models.Value{}, s.errorf("unexpected trailing data %q", s.data[s.pos])
	}
	return v, nil
}

func (s *scanner) parseValue(root bool) (models.Value, error) {
	s.skipSpace()
	if s.eof() {
		return models.Value{}, s.errorf("unexpected end of input")
	}
	switch c := s.data[s.pos]; c {
	case '{':
		return s.parseObject()
	case '[':
		return s.parseArray()
	case '"', '\'':
		str, err := s.parseQuoted()
		if err != nil {
			return models.Value{}, err
		}
		return models.NewString(str), nil
	case ',', ':', '}', ']':
		return models.Value{}, s.errorf("unexpected %q", c)
	default:
		start := s.pos
		token := s.readToken(valueTerminators)
		v, bare := bareValue(token)
		if root && bare {
			s.pos = start
			return models.Value{}, s.errorf("unquoted text %q is not a JSON document", token)
		}
		return v, nil
	}
}

func (s *scanner) parseObject() (models.Value, error) {
	s.pos++ // '{'
	members := make(map[string]models.Value)
	for {
		s.skipSpace()
		if s.eof() {
			return models.Value{}, s.errorf("unterminated object")
		}
		switch s.data[s.pos] {
		case '}':
			s.pos++
			return models.NewObject(members), nil
		case ',':
			s.pos++
			continue
		}

		key, err := s.parseKey()
		if err != nil {
			return models.Value{}, err
		}
		s.skipSpace()
		if s.eof() || s.data[s.pos] != ':' {
			return models.Value{}, s.errorf("expected ':' after key %q", key)
		}
		s.pos++

		member, err := s.parseValue(false)
		if err != nil {
			return models.Value{}, err
		}
		members[key] = member

		s.skipSpace()
		if s.eof() {
			return models.Value{}, s.errorf("unterminated object")
		}
		switch s.data[s.pos] {
		case ',':
			s.pos++
		case '}':
			s.pos++
			return models.NewObject(members), nil
		default:
			return models.Value{}, s.errorf("expected ',' or '}' but found %q", s.data[s.pos])
		}
	}
}

func (s *scanner) parseArray() (models.Value, error) {
	s.pos++ // '['
	var elements []models.Value
	for {
		s.skipSpace()
		if s.eof() {
			return models.Value{}, s.errorf("unterminated array")
		}
		switch s.data[s.pos] {
		case ']':
			s.pos++
			return models.NewArray(elements...), nil
		case ',':
			s.pos++
			continue
		}

		elem, err := s.parseValue(false)
		if err != nil {
			return models.Value{}, err
		}
		elements = append(elements, elem)

		s.skipSpace()
		if s.eof() {
			return models.Value{}, s.errorf("unterminated array")
		}
		switch s.data[s.pos] {
		case ',':
			s.pos++
		case ']':
			s.pos++
			return models.NewArray(elements...), nil
		default:
			return models.Value{}, s.errorf("expected ',' or ']' but found %q", s.data[s.pos])
		}
	}
}

func (s *scanner) parseKey() (string, error) {
	if c := s.data[s.pos]; c == '"' || c == '\'' {
		return s.parseQuoted()
	}
	key := s.readToken(keyTerminators)
	if key == "" {
		return "", s.errorf("expected object key but found %q", s.data[s.pos])
	}
	return key, nil
}

// parseQuoted reads a string delimited by the quote character at s.pos
func (s *scanner) parseQuoted() (string, error) {
	quote := s.data[s.pos]
	s.pos++
	var b strings.Builder
	for !s.eof() {
		c := s.data[s.pos]
		switch {
		case c == quote:
			s.pos++
			return b.String(), nil
		case c == '\\':
			if err := s.readEscape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(s.data[s.pos:])
			b.WriteRune(r)
			s.pos += size
		}
	}
	return "", s.errorf("unterminated string")
}

func (s *scanner) readEscape(b *strings.Builder) error {
	s.pos++ // '\'
	if s.eof() {
		return s.errorf("unterminated escape sequence")
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case '"', '\'', '\\', '/':
		b.WriteByte(c)
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, err := s.readHex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(s.data[s.pos:], `\u`) {
			s.pos += 2
			low, err := s.readHex4()
			if err != nil {
				return err
			}
			r = utf16.DecodeRune(r, low)
		}
		b.WriteRune(r)
	default:
		return s.errorf("invalid escape character %q", c)
	}
	return nil
}

func (s *scanner) readHex4() (rune, error) {
	if s.pos+4 > len(s.data) {
		return 0, s.errorf("truncated unicode escape")
	}
	n, err := strconv.ParseUint(s.data[s.pos:s.pos+4], 16, 32)
	if err != nil {
		return 0, s.errorf("invalid unicode escape %q", s.data[s.pos:s.pos+4])
	}
	s.pos += 4
	return rune(n), nil
}

// readToken consumes an unquoted token up to the next terminator and
// returns it without surrounding whitespace.
func (s *scanner) readToken(terminators string) string {
	start := s.pos
	for !s.eof() && !strings.ContainsRune(terminators, rune(s.data[s.pos])) {
		s.pos++
	}
	return strings.TrimSpace(s.data[start:s.pos])
}

func (s *scanner) skipSpace() {
	for !s.eof() {
		switch s.data[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.data)
}

func (s *scanner) errorf(format string, args ...any) error {
	return errors.NewParseError(
		fmt.Sprintf("%s at offset %d", fmt.Sprintf(format, args...), s.pos),
		errors.ErrInvalidJSON,
	)
}

// bareValue interprets an unquoted token. The second result is true when the
// token was taken as a plain string.
func bareValue(token string) (models.Value, bool) {
	switch token {
	case "true":
		return models.NewBool(true), false
	case "false":
		return models.NewBool(false), false
	case "null":
		return models.Null(), false
	}
	if numberPattern.MatchString(token) {
		return numberValue(token), false
	}
	return models.NewString(token), true
}
