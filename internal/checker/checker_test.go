package checker

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonassert/internal/comparator"
	"github.com/mcncl/jsonassert/internal/config"
	"github.com/mcncl/jsonassert/internal/errors"
	"github.com/mcncl/jsonassert/internal/mockserver"
	"github.com/mcncl/jsonassert/internal/query"
	"github.com/mcncl/jsonassert/internal/source"
)

const (
	storeFile     = "testdata/store.json"
	reorderedFile = "testdata/store_reordered.json"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChecker(t *testing.T, cache bool) *Checker {
	t.Helper()
	cfg := config.NewConfig()
	cfg.UseURICache = cache
	c, err := NewFromConfig(*cfg, discardLogger())
	require.NoError(t, err)
	return c
}

func startMock(t *testing.T) (*mockserver.Server, string) {
	t.Helper()
	mock := mockserver.NewServer(discardLogger(), "")
	ts := httptest.NewServer(mock.Handler())
	t.Cleanup(ts.Close)
	return mock, ts.URL
}

func strPtr(s string) *string {
	return &s
}

func TestNewFromConfig_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ConnectionTimeout = -1

	_, err := NewFromConfig(*cfg, discardLogger())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestShouldBeEqual(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		exact   bool
		errType errors.ErrorType
	}{
		{"same text semantic", `{foo: bar}`, `{foo: bar}`, false, ""},
		{"same text exact", `{foo: bar}`, `{foo: bar}`, true, ""},
		{"reordered semantic", `{foo: bar, abc: xyz}`, `{abc: xyz, foo: bar}`, false, ""},
		{"reordered exact", `{foo: bar, abc: xyz}`, `{abc: xyz, foo: bar}`, true, errors.ErrorTypeNotEqual},
		{"value differs", `{foo: bar}`, `{foo: xyz}`, false, errors.ErrorTypeNotEqual},
		{"first value differs", `{foo: car, abc: xyz}`, `{foo: bar, abc: xyz}`, false, errors.ErrorTypeNotEqual},
		{"extra key in to", `{a: 1}`, `{a: 1, b: 2}`, false, ""},
		{"extra key in from", `{a: 1, b: 2}`, `{a: 1}`, false, errors.ErrorTypeNotEqual},
		{"array order", `[1, 2]`, `[2, 1]`, false, errors.ErrorTypeNotEqual},
		{"array size", `[1, 2]`, `[1, 2, 3]`, false, errors.ErrorTypeNotEqual},
		{"unparsable side", `{a: `, `{a: 1}`, false, errors.ErrorTypeNotEqual},
		{"both blank", "", "", false, errors.ErrorTypeInvalidInput},
		{"from blank", "", `{foo: bar}`, true, errors.ErrorTypeInvalidInput},
		{"files semantic", storeFile, reorderedFile, false, ""},
		{"files exact", storeFile, reorderedFile, true, errors.ErrorTypeNotEqual},
		{"file against itself exact", storeFile, storeFile, true, ""},
		{"missing file", "testdata/missing.json", storeFile, false, errors.ErrorTypeInvalidInput},
	}

	c := newChecker(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal, err := c.ShouldBeEqual(context.Background(), tt.from, tt.to, tt.exact, source.Request{})
			if tt.errType == "" {
				require.NoError(t, err)
				assert.True(t, equal)
				return
			}
			require.Error(t, err)
			assert.False(t, equal)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestCompareExactAndSemantic(t *testing.T) {
	c := newChecker(t, false)
	ctx := context.Background()
	from, to := `{foo: bar, abc: xyz}`, `{abc: xyz, foo: bar}`

	equal, err := c.CompareSemantic(ctx, from, to, source.Request{})
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = c.CompareExact(ctx, from, to, source.Request{})
	assert.False(t, equal)
	assert.ErrorIs(t, err, errors.ErrNotEqual)
}

func TestShouldBeEqual_NotEqualNamesFirstDifference(t *testing.T) {
	c := newChecker(t, false)

	_, err := c.CompareSemantic(context.Background(), `{foo: car}`, `{foo: bar}`, source.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON strings are not equal by compare")
	assert.Contains(t, err.Error(), "' -> foo' did not match from: car to: bar")
}

func TestShouldBeEqual_Network(t *testing.T) {
	mock, url := startMock(t)
	c := newChecker(t, false)
	ctx := context.Background()

	equal, err := c.CompareSemantic(ctx, url+"/hello", `{message: "hello world"}`, source.Request{})
	require.NoError(t, err)
	assert.True(t, equal)

	equal, err = c.CompareSemantic(ctx, url+"/login", `{status: success, message: Welcome}`,
		source.Request{Method: "POST", Body: mockserver.LoginBody})
	require.NoError(t, err)
	assert.True(t, equal)

	_, err = c.CompareSemantic(ctx, url+"/missing", `{}`, source.Request{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))

	assert.Equal(t, uint64(3), mock.Requests())
}

func TestElementAt(t *testing.T) {
	c := newChecker(t, false)
	ctx := context.Background()

	value, err := c.ElementAt(ctx, storeFile, "$.store.book[0].category", source.Request{})
	require.NoError(t, err)
	assert.Equal(t, "reference", value)

	value, err = c.ElementAt(ctx, storeFile, "$.store.book[*].price", source.Request{})
	require.NoError(t, err)
	assert.Equal(t, []any{8.95, 12.99, 8.99, 22.99}, value)

	value, err = c.ElementAt(ctx, `{a: {b: [x, y]}}`, "$.a.b[1]", source.Request{})
	require.NoError(t, err)
	assert.Equal(t, "y", value)
}

func TestElementAt_Errors(t *testing.T) {
	mock, url := startMock(t)
	c := newChecker(t, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		source  string
		path    string
		errType errors.ErrorType
	}{
		{"missing path", storeFile, "$.store.missing", errors.ErrorTypeNotFound},
		{"index out of range", storeFile, "$.store.book[9]", errors.ErrorTypeNotFound},
		{"invalid expression", url + "/hello", "$.store.book[", errors.ErrorTypeInvalidArgument},
		{"empty expression", url + "/hello", " ", errors.ErrorTypeInvalidArgument},
		{"blank source", "", "$.a", errors.ErrorTypeInvalidInput},
		{"unreachable source", url + "/missing", "$.a", errors.ErrorTypeInvalidInput},
		{"unparsable literal", `{a: `, "$.a", errors.ErrorTypeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ElementAt(ctx, tt.source, tt.path, source.Request{})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}

	// Invalid expressions are rejected before the source is fetched
	assert.Equal(t, uint64(1), mock.Requests())
}

func TestElementsAt(t *testing.T) {
	c := newChecker(t, false)
	ctx := context.Background()

	authors, err := c.ElementsAt(ctx, storeFile, "$..author", source.Request{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"Nigel Rees", "Evelyn Waugh", "Herman Melville", "J. R. R. Tolkien"}, authors)

	single, err := c.ElementsAt(ctx, storeFile, "$.store.bicycle.color", source.Request{})
	require.NoError(t, err)
	assert.Equal(t, []any{"red"}, single)

	_, err = c.ElementsAt(ctx, storeFile, "$.nope", source.Request{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestElementCountMatches(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected int
		errType  errors.ErrorType
	}{
		{"array", "$.store.book", 4, ""},
		{"wildcard", "$.store.book[*].author", 4, ""},
		{"filter", "$.store.book[?(@.price < 10)]", 2, ""},
		{"list count differs", "$.store.book[*]", 3, errors.ErrorTypeNotEqual},
		{"list expected single", "$.store.book[*]", 1, errors.ErrorTypeNotEqual},
		{"single value", "$.store.book[0].category", 1, ""},
		{"single value too many", "$.store.book[0].category", 5, errors.ErrorTypeNotFound},
		{"null value", "$.owner", 1, errors.ErrorTypeNotFound},
		{"empty list", "$.tags", 0, errors.ErrorTypeNotFound},
		{"filter without matches", "$.store.book[?(@.price > 100)]", 0, errors.ErrorTypeNotFound},
		{"missing path", "$.store.missing", 1, errors.ErrorTypeNotFound},
	}

	c := newChecker(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := c.ElementCountMatches(context.Background(), storeFile, tt.path, tt.expected, source.Request{})
			if tt.errType == "" {
				require.NoError(t, err)
				assert.True(t, match)
				return
			}
			require.Error(t, err)
			assert.False(t, match)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestElementCountMatches_Messages(t *testing.T) {
	c := newChecker(t, false)
	ctx := context.Background()

	_, err := c.ElementCountMatches(ctx, storeFile, "$.store.book", 2, source.Request{})
	assert.Contains(t, err.Error(), "element counts did not match. Expected '2', got '4'")

	_, err = c.ElementCountMatches(ctx, storeFile, "$.expensive", 3, source.Request{})
	assert.Contains(t, err.Error(), "found 1 item, but expected '3'")
}

func TestElementMatches(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
		errType  errors.ErrorType
	}{
		{"string", "$.store.book[0].category", "reference", ""},
		{"string differs", "$.store.book[0].category", "foobar", errors.ErrorTypeNotEqual},
		{"integer", "$.expensive", "10", ""},
		{"whole float keeps fraction", "$.discount", "10.0", ""},
		{"float", "$.store.bicycle.price", "19.95", ""},
		{"null", "$.owner", "null", ""},
		{"object", "$.store.bicycle", `{"color":"red","price":19.95}`, ""},
		{"list", "$.store.book[?(@.price > 20)].title", `["The Lord of the Rings"]`, ""},
		{"missing path", "$.store.missing", "x", errors.ErrorTypeNotFound},
	}

	c := newChecker(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := c.ElementMatches(context.Background(), storeFile, tt.path, strPtr(tt.expected), source.Request{})
			if tt.errType == "" {
				require.NoError(t, err)
				assert.True(t, match)
				return
			}
			require.Error(t, err)
			assert.False(t, match)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestFilters_IntegerFields(t *testing.T) {
	const items = `{"items": [{"id": 1, "price": 5}, {"id": 2, "price": 15}, {"id": 1.5, "price": 25}]}`
	c := newChecker(t, false)
	ctx := context.Background()

	match, err := c.ElementCountMatches(ctx, items, "$.items[?(@.id == 1)]", 1, source.Request{})
	require.NoError(t, err)
	assert.True(t, match)

	match, err = c.ElementMatches(ctx, items, "$.items[?(@.id == 2)].price", strPtr("[15]"), source.Request{})
	require.NoError(t, err)
	assert.True(t, match)

	match, err = c.ElementMatches(ctx, items, "$.items[?(@.id == 1.5)].price", strPtr("[25]"), source.Request{})
	require.NoError(t, err)
	assert.True(t, match)

	match, err = c.ElementCountMatches(ctx, items, "$.items[?(@.price >= 15)]", 2, source.Request{})
	require.NoError(t, err)
	assert.True(t, match)

	_, err = c.ElementCountMatches(ctx, items, "$.items[?(@.id == 3)]", 1, source.Request{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestNew_WithEngine(t *testing.T) {
	fetcher, err := source.NewFetcher(*config.NewConfig(), discardLogger())
	require.NoError(t, err)
	engine, err := query.NewEngine(0)
	require.NoError(t, err)

	c := New(source.NewResolver(fetcher, discardLogger()), comparator.New(discardLogger()), engine, nil)

	value, err := c.ElementAt(context.Background(), storeFile, "$.store.book[?(@.price > 20)].author", source.Request{})
	require.NoError(t, err)
	assert.Equal(t, []any{"J. R. R. Tolkien"}, value)
}

func TestElementMatches_NilExpected(t *testing.T) {
	mock, url := startMock(t)
	c := newChecker(t, false)

	_, err := c.ElementMatches(context.Background(), url+"/hello", "$.message", nil, source.Request{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
	assert.ErrorIs(t, err, errors.ErrNilExpected)
	assert.Zero(t, mock.Requests(), "no I/O for a nil expected value")
}

func TestElementMatches_Network(t *testing.T) {
	_, url := startMock(t)
	c := newChecker(t, false)
	ctx := context.Background()

	tests := []struct {
		name     string
		path     string
		req      source.Request
		field    string
		expected string
	}{
		{"get", "/hello", source.Request{}, "$.message", "hello world"},
		{"post welcome", "/login", source.Request{Method: "POST", Body: mockserver.LoginBody}, "$.status", "success"},
		{"post denied", "/login", source.Request{Method: "POST", Body: "{}"}, "$.message", "Access denied"},
		{"put", "/add", source.Request{Method: "PUT", Body: mockserver.AddBody, ContentType: "application/json"}, "$.modified", "1"},
		{"delete", "/delete?id=123", source.Request{Method: "DELETE"}, "$.deleted", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := c.ElementMatches(ctx, url+tt.path, tt.field, strPtr(tt.expected), tt.req)
			require.NoError(t, err)
			assert.True(t, match)
		})
	}
}

func TestChecker_CachesAddresses(t *testing.T) {
	mock, url := startMock(t)
	c := newChecker(t, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		match, err := c.ElementMatches(ctx, url+"/hello", "$.message", strPtr("hello world"), source.Request{})
		require.NoError(t, err)
		assert.True(t, match)
	}

	assert.Equal(t, uint64(1), mock.Requests())
	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestChecker_WithoutCacheFetchesEveryTime(t *testing.T) {
	mock, url := startMock(t)
	c := newChecker(t, false)

	for i := 0; i < 3; i++ {
		_, err := c.ElementAt(context.Background(), url+"/hello", "$.message", source.Request{})
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(3), mock.Requests())
}
