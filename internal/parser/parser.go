package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	stderrors "errors" // Standard errors package
	"github.com/mcncl/jsonassert/internal/errors" // Custom errors package
	"github.com/mcncl/jsonassert/internal/models"
)

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Parse converts JSON text into a value tree. Well-formed JSON is decoded
// strictly; anything else gets a second, permissive read that accepts
// unquoted keys and values, single-quoted strings and trailing commas.
func Parse(text string) (models.Value, error) {
	if strings.TrimSpace(text) == "" {
		return models.Value{}, errors.NewInputError("input string is empty", errors.ErrEmptySource)
	}
	v, err := ParseStrict(strings.NewReader(text))
	if err == nil {
		return v, nil
	}
	if !stderrors.Is(err, errors.ErrInvalidJSON) {
		return models.Value{}, err
	}
	return parsePermissive(text)
}

// ParseReader reads r to the end and parses the contents with Parse
func ParseReader(reader io.Reader) (models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to read input", err)
	}
	return Parse(string(data))
}

// ParseStrict decodes exactly one standard JSON document from reader
func ParseStrict(reader io.Reader) (models.Value, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // keep integer and float literals apart

	var root any
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.Value{}, errors.NewInputError("input is empty or contains only whitespace", errors.ErrEmptySource)
		}
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return models.Value{}, errors.NewParseError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return models.Value{}, errors.NewParseError("unexpected end of JSON input", errors.ErrInvalidJSON)
		}
		return models.Value{}, errors.NewParseError("failed to decode JSON", err)
	}

	// Only whitespace may follow the first value.
	if decoder.More() {
		var trailing any
		err := decoder.Decode(&trailing)
		if err == nil {
			return models.Value{}, errors.NewParseError("multiple JSON values found at the root", errors.ErrInvalidJSON)
		}
		if !stderrors.Is(err, io.EOF) {
			return models.Value{}, errors.NewParseError("invalid trailing data after JSON value", errors.ErrInvalidJSON)
		}
	}

	return toValue(root), nil
}

// toValue converts decoder output into the value model
func toValue(raw any) models.Value {
	switch v := raw.(type) {
	case map[string]any:
		members := make(map[string]models.Value, len(v))
		for key, member := range v {
			members[key] = toValue(member)
		}
		return models.NewObject(members)
	case []any:
		elements := make([]models.Value, len(v))
		for i, elem := range v {
			elements[i] = toValue(elem)
		}
		return models.NewArray(elements...)
	case string:
		return models.NewString(v)
	case bool:
		return models.NewBool(v)
	case json.Number:
		return numberValue(string(v))
	default:
		return models.Null()
	}
}

// numberValue picks Integer for literals without fraction or exponent that fit
// int64, Float for finite doubles and Number for everything else.
func numberValue(raw string) models.Value {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return models.NewInt(i)
		}
		return models.NewNumber(raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return models.NewNumber(raw)
	}
	return models.NewFloat(f)
}
