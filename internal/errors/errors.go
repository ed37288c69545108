package errors

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrorCollector accumulates the diagnostics of one generation run.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{errors: make([]error, 0)}
}

// Add records err. Nil errors are ignored.
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Errors returns the collected errors in insertion order.
func (ec *ErrorCollector) Errors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// Sorted returns the collected errors ordered by file, line and column.
// Errors without a location keep their relative order at the end.
func (ec *ErrorCollector) Sorted() []error {
	result := ec.Errors()
	sort.SliceStable(result, func(i, j int) bool {
		a, aok := located(result[i])
		b, bok := located(result[j])
		switch {
		case aok && bok:
			if a.FilePath != b.FilePath {
				return a.FilePath < b.FilePath
			}
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			return a.Column < b.Column
		default:
			return aok && !bok
		}
	})
	return result
}

func located(err error) (*AfmtError, bool) {
	var ae *AfmtError
	if errors.As(err, &ae) && ae.Located() {
		return ae, true
	}
	return nil, false
}

// Len returns the number of collected errors.
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	return ec.Len() > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

// ByCode returns the collected errors carrying code.
func (ec *ErrorCollector) ByCode(code string) []error {
	var out []error
	for _, err := range ec.Errors() {
		if Code(err) == code {
			out = append(out, err)
		}
	}
	return out
}

// Err joins the collected errors in source order, or returns nil.
func (ec *ErrorCollector) Err() error {
	if !ec.HasErrors() {
		return nil
	}
	return errors.Join(ec.Sorted()...)
}

// Report renders every collected error on its own line, followed by the
// suggestions for its code.
func (ec *ErrorCollector) Report() string {
	var b strings.Builder
	for _, err := range ec.Sorted() {
		b.WriteString(FormatErrorWithSuggestions(err))
		b.WriteByte('\n')
	}
	return b.String()
}
