package errors

import (
	"errors"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Example     string
}

// Suggestions returns the fix-it notes for a diagnostic code.
func Suggestions(code string) []ErrorSuggestion {
	switch code {
	case ErrCodeUnterminatedPlaceholder:
		return []ErrorSuggestion{{
			Title:       "Close the placeholder",
			Description: "Every '{' starts a placeholder; there is no escape for a literal brace",
			Example:     `//afmt:format "total: {}", n`,
		}}
	case ErrCodeMissingArgument:
		return []ErrorSuggestion{{
			Title:       "Supply one argument per {}",
			Description: "Positional placeholders consume the arguments left to right",
		}}
	case ErrCodeMissingSeparator:
		return []ErrorSuggestion{{
			Title:   "Separate arguments with commas",
			Example: `//afmt:format "{} {}", a, b`,
		}}
	case ErrCodeUnknownArgument:
		return []ErrorSuggestion{{
			Title:       "Name a parameter or package-level value",
			Description: "{ident} is looked up in the scope of the stub function",
		}}
	case ErrCodeCapacityInsufficient:
		return []ErrorSuggestion{{
			Title:       "Grow the destination",
			Description: "Increase the size of the provided bstr.Array, or reduce the number/size of arguments",
		}}
	case ErrCodeNotRenderable:
		return []ErrorSuggestion{{
			Title:       "Give the argument a bounded rendering",
			Description: "Wrap strings in bstr.CapStr[[N]byte], or implement AppendBounded and a MaxLen method returning a constant",
		}}
	case ErrCodeInvalidDestination:
		return []ErrorSuggestion{{
			Title:   "Pass a pointer to a bstr.Array",
			Example: `func Age(dst *bstr.Array[[32]byte], age uint8)`,
		}}
	case ErrCodeUnusedArgument:
		return []ErrorSuggestion{{
			Title:       "Remove the extra argument",
			Description: "Every argument must be consumed by a {} placeholder",
		}}
	}
	return nil
}

// FormatError renders err on a single line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FormatErrorWithSuggestions renders err followed by indented notes.
func FormatErrorWithSuggestions(err error) string {
	var b strings.Builder
	b.WriteString(FormatError(err))

	var ae *AfmtError
	if !errors.As(err, &ae) {
		return b.String()
	}
	for _, s := range Suggestions(ae.Code) {
		b.WriteString("\n\tnote: ")
		b.WriteString(s.Title)
		if s.Description != "" {
			b.WriteString(": ")
			b.WriteString(s.Description)
		}
		if s.Example != "" {
			b.WriteString("\n\t  e.g. ")
			b.WriteString(s.Example)
		}
	}
	return b.String()
}
