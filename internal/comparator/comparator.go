package comparator

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcncl/jsonassert/internal/models"
	"github.com/mcncl/jsonassert/internal/parser"
)

// EntryKind classifies a single comparison decision
type EntryKind string

const (
	EntryMatch        EntryKind = "match"
	EntryMismatch     EntryKind = "mismatch"
	EntryMissingKey   EntryKind = "missing_key"
	EntrySizeMismatch EntryKind = "size_mismatch"
	EntryTypeMismatch EntryKind = "type_mismatch"
	EntryRanOut       EntryKind = "ran_out"
	EntryUnsupported  EntryKind = "unsupported"
	EntryAbsent       EntryKind = "absent"
)

// Entry is one line of the comparison trace
type Entry struct {
	Path    string
	Kind    EntryKind
	Message string
}

// Failed reports whether the decision counted against equality
func (e Entry) Failed() bool {
	return e.Kind != EntryMatch
}

// Report is the verdict of a comparison together with its trace
type Report struct {
	Equal   bool
	Entries []Entry
}

// Failures returns the entries that made the comparison unequal
func (r Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

// Comparator compares JSON documents structurally. Object keys are checked
// in one direction only: every key of "from" must exist in "to", while keys
// that only "to" has are ignored.
type Comparator struct {
	logger *slog.Logger
}

// New creates a Comparator that writes its trace to logger
func New(logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{logger: logger}
}

// Compare parses both texts and reports whether they are structurally equal.
// A blank or unparsable side makes the documents unequal.
func (c *Comparator) Compare(from, to string) bool {
	return c.CompareText(from, to).Equal
}

// CompareText is Compare with the full trace
func (c *Comparator) CompareText(from, to string) Report {
	w := c.newWalk()

	fromBlank, toBlank := strings.TrimSpace(from) == "", strings.TrimSpace(to) == ""
	if fromBlank || toBlank {
		w.fail("", EntryAbsent, fmt.Sprintf("absent document: %s", absentSides(fromBlank, toBlank)))
		return w.report(false)
	}

	fromValue, fromErr := parser.Parse(from)
	if fromErr != nil {
		w.fail("", EntryAbsent, fmt.Sprintf("could not parse from JSON: %v", fromErr))
	}
	toValue, toErr := parser.Parse(to)
	if toErr != nil {
		w.fail("", EntryAbsent, fmt.Sprintf("could not parse to JSON: %v", toErr))
	}
	if fromErr != nil || toErr != nil {
		return w.report(false)
	}

	return w.report(w.values(fromValue, toValue, ""))
}

// CompareValues compares two value trees starting at path. A nil value is an
// absent document; two absent documents are vacuously equal.
func (c *Comparator) CompareValues(from, to *models.Value, path string) bool {
	w := c.newWalk()
	return w.compare(from, to, path)
}

// Diff compares two value trees from the root and returns the full trace
func (c *Comparator) Diff(from, to *models.Value) Report {
	w := c.newWalk()
	return w.report(w.compare(from, to, ""))
}

func (c *Comparator) newWalk() *walk {
	return &walk{logger: c.logger}
}

type walk struct {
	logger  *slog.Logger
	entries []Entry
}

func (w *walk) report(equal bool) Report {
	return Report{Equal: equal, Entries: w.entries}
}

func (w *walk) match(path, message string) {
	w.entries = append(w.entries, Entry{Path: path, Kind: EntryMatch, Message: message})
	w.logger.Debug(message, slog.String("path", path))
}

func (w *walk) fail(path string, kind EntryKind, message string) {
	w.entries = append(w.entries, Entry{Path: path, Kind: kind, Message: message})
	w.logger.Error(message, slog.String("path", path), slog.String("reason", string(kind)))
}

func (w *walk) compare(from, to *models.Value, path string) bool {
	switch {
	case from == nil && to == nil:
		w.match(path, "both from and to were absent")
		return true
	case from == nil || to == nil:
		w.fail(path, EntryAbsent, fmt.Sprintf("there was an absent value (path %s) from: %s to: %s", path, describe(from), describe(to)))
		return false
	}
	return w.values(*from, *to, path)
}

func (w *walk) values(from, to models.Value, path string) bool {
	if from.Kind() != to.Kind() {
		w.fail(path, EntryTypeMismatch, fmt.Sprintf("the types differ from: %s (%s) to: %s (%s)",
			from.Kind(), from, to.Kind(), to))
		return false
	}

	switch from.Kind() {
	case models.KindObject:
		return w.objects(from, to, path)
	case models.KindArray:
		return w.arrays(from, to, path)
	case models.KindString:
		return w.scalars(from, to, path, from.Str() == to.Str())
	case models.KindBoolean:
		return w.scalars(from, to, path, from.Bool() == to.Bool())
	case models.KindInteger:
		return w.scalars(from, to, path, from.Int() == to.Int())
	case models.KindFloat:
		return w.scalars(from, to, path, from.Float() == to.Float())
	case models.KindNull:
		w.match(path, "both values were null")
		return true
	default:
		w.fail(path, EntryUnsupported, fmt.Sprintf("value was unsupported type %s (%s)", from.Kind(), from))
		return false
	}
}

// objects stops at the first key of from that to does not have
func (w *walk) objects(from, to models.Value, path string) bool {
	equal := true
	for _, key := range from.Keys() {
		keyPath := path + " -> " + key
		toMember, ok := to.Get(key)
		if !ok {
			w.fail(keyPath, EntryMissingKey, fmt.Sprintf("to does not contain key '%s'", keyPath))
			return false
		}
		fromMember, _ := from.Get(key)
		if !w.values(fromMember, toMember, keyPath) {
			equal = false
		}
	}
	return equal
}

// arrays are positional; a size difference is recorded but the shared
// prefix is still compared.
func (w *walk) arrays(from, to models.Value, path string) bool {
	equal := true
	if from.Len() != to.Len() {
		w.fail(path, EntrySizeMismatch, fmt.Sprintf("the array sizes differ from: %d to: %d", from.Len(), to.Len()))
		equal = false
	}

	for i := 0; i < from.Len(); i++ {
		fromElem, _ := from.Index(i)
		elemPath := path + " -> " + strconv.Itoa(i)
		toElem, ok := to.Index(i)
		if !ok {
			w.fail(elemPath, EntryRanOut, fmt.Sprintf("ran out of values in to array at from value: %s", fromElem))
			return false
		}
		if !w.values(fromElem, toElem, elemPath) {
			equal = false
		}
	}
	return equal
}

func (w *walk) scalars(from, to models.Value, path string, equal bool) bool {
	if equal {
		w.match(path, fmt.Sprintf("the values matched for key '%s'", path))
		return true
	}
	w.fail(path, EntryMismatch, fmt.Sprintf("the values for key '%s' did not match from: %s to: %s", path, from, to))
	return false
}

func describe(v *models.Value) string {
	if v == nil {
		return "<absent>"
	}
	return v.String()
}

func absentSides(fromBlank, toBlank bool) string {
	switch {
	case fromBlank && toBlank:
		return "both from and to were empty"
	case fromBlank:
		return "from was empty"
	default:
		return "to was empty"
	}
}
