package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcncl/jsonassert/internal/comparator"
	"github.com/mcncl/jsonassert/internal/config"
	"github.com/mcncl/jsonassert/internal/errors"
	"github.com/mcncl/jsonassert/internal/formatter"
	"github.com/mcncl/jsonassert/internal/parser"
	"github.com/mcncl/jsonassert/internal/query"
	"github.com/mcncl/jsonassert/internal/source"
)

// Checker asserts equality of JSON sources and inspects them with path
// expressions. Every assertion returns true with a nil error when it holds;
// otherwise the error says why.
type Checker struct {
	resolver  *source.Resolver
	cmp       *comparator.Comparator
	engine    *query.Engine
	formatter *formatter.Formatter
	logger    *slog.Logger
}

// New creates a Checker from its collaborators
func New(resolver *source.Resolver, cmp *comparator.Comparator, engine *query.Engine, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		resolver:  resolver,
		cmp:       cmp,
		engine:    engine,
		formatter: formatter.NewFormatter(),
		logger:    logger,
	}
}

// NewFromConfig wires a fetcher, resolver and comparator from cfg
func NewFromConfig(cfg config.Config, logger *slog.Logger) (*Checker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fetcher, err := source.NewFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}
	engine, err := query.NewEngine(query.DefaultCacheSize)
	if err != nil {
		return nil, errors.NewConfigError("failed to create path engine", err)
	}
	return New(source.NewResolver(fetcher, logger), comparator.New(logger), engine, logger), nil
}

// Stats returns the fetcher counters
func (c *Checker) Stats() source.Stats {
	return c.resolver.Fetcher().Stats()
}

// ShouldBeEqual resolves both sources with req and compares them, either
// byte for byte (exact) or structurally.
func (c *Checker) ShouldBeEqual(ctx context.Context, from, to string, exact bool, req source.Request) (bool, error) {
	c.logger.Debug("comparing JSON sources", slog.Bool("exact", exact))

	fromJSON, fromOK := c.resolver.Read(ctx, from, req)
	toJSON, toOK := c.resolver.Read(ctx, to, req)

	if !fromOK || !toOK || strings.TrimSpace(fromJSON) == "" || strings.TrimSpace(toJSON) == "" {
		c.logger.Error("either from or to JSON was empty")
		return false, errors.NewInputError("either from or to JSON was empty", errors.ErrEmptySource)
	}

	if exact {
		if fromJSON != toJSON {
			c.logger.Error("JSON strings are not equal by exact compare")
			return false, errors.NewNotEqualError("JSON strings are not equal by exact compare", errors.ErrNotEqual)
		}
		c.logger.Debug("JSON strings are equal by exact compare")
		return true, nil
	}

	report := c.cmp.CompareText(fromJSON, toJSON)
	if !report.Equal {
		return false, errors.NewNotEqualError(notEqualMessage(report), errors.ErrNotEqual)
	}
	return true, nil
}

// CompareExact is ShouldBeEqual with byte equality
func (c *Checker) CompareExact(ctx context.Context, from, to string, req source.Request) (bool, error) {
	return c.ShouldBeEqual(ctx, from, to, true, req)
}

// CompareSemantic is ShouldBeEqual with structural equality
func (c *Checker) CompareSemantic(ctx context.Context, from, to string, req source.Request) (bool, error) {
	return c.ShouldBeEqual(ctx, from, to, false, req)
}

// ElementAt returns what path selects in src: a single value, or a list
// for indefinite paths and arrays.
func (c *Checker) ElementAt(ctx context.Context, src, path string, req source.Request) (any, error) {
	result, err := c.evaluate(ctx, src, path, req)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ElementsAt is ElementAt that always returns a list
func (c *Checker) ElementsAt(ctx context.Context, src, path string, req source.Request) ([]any, error) {
	result, err := c.evaluate(ctx, src, path, req)
	if err != nil {
		return nil, err
	}
	if result.Plural {
		return result.Value.([]any), nil
	}
	return []any{result.Value}, nil
}

// ElementCountMatches checks how many elements path selects. A single
// value counts as one element; a null or empty selection is not found.
func (c *Checker) ElementCountMatches(ctx context.Context, src, path string, expected int, req source.Request) (bool, error) {
	result, err := c.evaluate(ctx, src, path, req)
	if err != nil {
		return false, err
	}

	if result.Plural {
		elements := result.Value.([]any)
		if len(elements) == 0 {
			c.logger.Error("could not find elements", slog.String("path", path))
			return false, errors.NewNotFoundError(
				fmt.Sprintf("could not find elements from '%s'", path), errors.ErrPathNotFound)
		}
		if len(elements) != expected {
			c.logger.Error("element counts did not match",
				slog.Int("expected", expected), slog.Int("actual", len(elements)))
			return false, errors.NewNotEqualError(
				fmt.Sprintf("element counts did not match. Expected '%d', got '%d'", expected, len(elements)),
				errors.ErrNotEqual)
		}
		return true, nil
	}

	if result.Value == nil {
		c.logger.Error("could not find elements", slog.String("path", path))
		return false, errors.NewNotFoundError(
			fmt.Sprintf("could not find elements from '%s'", path), errors.ErrPathNotFound)
	}
	if expected != 1 {
		c.logger.Error("found 1 item", slog.Int("expected", expected))
		return false, errors.NewNotFoundError(
			fmt.Sprintf("found 1 item, but expected '%d'", expected), errors.ErrPathNotFound)
	}

	c.logger.Debug("found 1 item as expected", slog.String("path", path))
	return true, nil
}

// ElementMatches renders what path selects and compares it with expected
func (c *Checker) ElementMatches(ctx context.Context, src, path string, expected *string, req source.Request) (bool, error) {
	if expected == nil {
		return false, errors.NewArgumentError("given value was nil", errors.ErrNilExpected)
	}

	value, err := c.ElementAt(ctx, src, path, req)
	if err != nil {
		return false, err
	}

	found, err := c.formatter.Format(value)
	if err != nil {
		return false, errors.NewParseError("could not render the found value", err)
	}

	if found != *expected {
		c.logger.Error("the values did not match", slog.String("found", found), slog.String("expected", *expected))
		return false, errors.NewNotEqualError(
			fmt.Sprintf("the found value did not match, found '%s', expected '%s'", found, *expected),
			errors.ErrNotEqual)
	}

	c.logger.Debug("the values did match", slog.String("value", found))
	return true, nil
}

// evaluate compiles path before touching src so a bad expression costs no I/O
func (c *Checker) evaluate(ctx context.Context, src, path string, req source.Request) (query.Result, error) {
	c.logger.Debug("reading json path", slog.String("path", path))

	if _, err := c.engine.Compile(path); err != nil {
		return query.Result{}, err
	}

	text, ok := c.resolver.Read(ctx, src, req)
	if !ok {
		return query.Result{}, errors.NewInputError(
			fmt.Sprintf("could not read a JSON source for path '%s'", path), errors.ErrEmptySource)
	}

	doc, err := parser.Parse(text)
	if err != nil {
		return query.Result{}, err
	}

	result, err := c.engine.Evaluate(ctx, doc, path)
	if err != nil {
		c.logger.Error("path was not found", slog.String("path", path))
		return query.Result{}, err
	}
	return result, nil
}

func notEqualMessage(report comparator.Report) string {
	failures := report.Failures()
	if len(failures) == 0 {
		return "JSON strings are not equal by compare"
	}
	return fmt.Sprintf("JSON strings are not equal by compare: %s", failures[0].Message)
}
