package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcncl/jsonassert/internal/errors"
	"github.com/mcncl/jsonassert/internal/models"
)

// DefaultCacheSize is the number of compiled expressions an Engine keeps
const DefaultCacheSize = 256

// language adds arithmetic, text and logic operators to the JSONPath
// grammar so filters can use <, <=, > and >=, and == compares numbers by value
// (an int64 field equals the literal 1)
var language = gval.NewLanguage(gval.Full(), jsonpath.Language())

// Result is what a path expression selected. Plural is true when the
// expression produced a list, either because it is indefinite (wildcards,
// deep scans, filters, slices, unions) or because it addressed an array.
type Result struct {
	Value  any
	Plural bool
}

// Len is the number of selected items; a single value counts as one
func (r Result) Len() int {
	if list, ok := r.Value.([]any); ok {
		return len(list)
	}
	return 1
}

// Engine evaluates JSONPath expressions against parsed documents
type Engine struct {
	compiled *lru.Cache[string, gval.Evaluable]
}

// NewEngine creates an Engine that keeps up to size compiled expressions
func NewEngine(size int) (*Engine, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, gval.Evaluable](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression cache: %w", err)
	}
	return &Engine{compiled: cache}, nil
}

// Compile parses expr, reusing an earlier compilation when there is one
func (e *Engine) Compile(expr string) (gval.Evaluable, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.NewArgumentError("path expression is empty", errors.ErrInvalidPath)
	}
	if eval, ok := e.compiled.Get(expr); ok {
		return eval, nil
	}

	eval, err := language.NewEvaluable(normalizeQuotes(expr))
	if err != nil {
		return nil, errors.NewArgumentError(
			fmt.Sprintf("invalid path expression '%s': %v", expr, err),
			errors.ErrInvalidPath,
		)
	}
	e.compiled.Add(expr, eval)
	return eval, nil
}

// Evaluate runs expr against doc. A definite path that does not exist is a
// not-found error; an indefinite path that matches nothing is an empty
// plural result.
func (e *Engine) Evaluate(ctx context.Context, doc models.Value, expr string) (Result, error) {
	eval, err := e.Compile(expr)
	if err != nil {
		return Result{}, err
	}

	value, err := eval(ctx, doc.Interface())
	if err != nil {
		return Result{}, errors.NewNotFoundError(
			fmt.Sprintf("no results for path '%s': %v", strings.TrimSpace(expr), err),
			errors.ErrPathNotFound,
		)
	}

	_, plural := value.([]any)
	return Result{Value: value, Plural: plural}, nil
}

// normalizeQuotes rewrites single-quoted strings as double-quoted ones. The
// expression language only takes single quotes around one character, while
// paths such as $['store'] or [?(@.category == 'fiction')] are common.
func normalizeQuotes(expr string) string {
	var b strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case inSingle:
			switch c {
			case '\\':
				if i+1 < len(expr) {
					i++
					if expr[i] != '\'' {
						b.WriteByte('\\')
					}
					b.WriteByte(expr[i])
					continue
				}
			case '\'':
				inSingle = false
				b.WriteByte('"')
				continue
			case '"':
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)
		case inDouble:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(expr) {
				i++
				b.WriteByte(expr[i])
				continue
			}
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
			b.WriteByte('"')
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
