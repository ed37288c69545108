package errors

import "fmt"

// ErrUnterminatedPlaceholder reports a '{' without a closing '}'.
func ErrUnterminatedPlaceholder(offset int) *AfmtError {
	return NewTemplateError(ErrCodeUnterminatedPlaceholder, "unterminated format argument").
		WithContext("offset", offset)
}

// ErrMissingArgument reports a positional placeholder with no argument left.
func ErrMissingArgument(index int) *AfmtError {
	return NewBindingError(ErrCodeMissingArgument, "not enough arguments for format string", nil).
		WithContext("placeholder", index)
}

// ErrMissingSeparator reports an argument not followed by a comma.
func ErrMissingSeparator(found string) *AfmtError {
	return NewBindingError(ErrCodeMissingSeparator,
		fmt.Sprintf("missing argument separator (`,`) before %s", found), nil).
		WithContext("found", found)
}

// ErrUnknownArgument reports a named placeholder with nothing in scope.
func ErrUnknownArgument(name string) *AfmtError {
	return NewTypeError(ErrCodeUnknownArgument,
		fmt.Sprintf("cannot find value `%s` in this scope", name)).
		WithContext("name", name)
}

// ErrCapacityInsufficient reports a writer destination that is shortfall
// bytes smaller than the bound.
func ErrCapacityInsufficient(capacity, bound, shortfall int) *AfmtError {
	return NewCapacityError(ErrCodeCapacityInsufficient,
		fmt.Sprintf("destination is not large enough for the formatted arguments: capacity %d < bound %d (short by %d bytes)",
			capacity, bound, shortfall)).
		WithContext("capacity", capacity).
		WithContext("bound", bound).
		WithContext("shortfall", shortfall)
}

// ErrInvalidArgument reports an argument that is not a valid expression.
func ErrInvalidArgument(src string, cause error) *AfmtError {
	return NewBindingError(ErrCodeInvalidArgument, fmt.Sprintf("invalid argument expression %q", src), cause).
		WithContext("argument", src)
}

// ErrUnusedArgument reports arguments left after all placeholders are bound.
func ErrUnusedArgument(src string) *AfmtError {
	return NewBindingError(ErrCodeUnusedArgument, fmt.Sprintf("argument never used: %s", src), nil).
		WithContext("argument", src)
}

// ErrNotRenderable reports an argument whose type has no static maximum length.
func ErrNotRenderable(expr, typ string) *AfmtError {
	return NewTypeError(ErrCodeNotRenderable,
		fmt.Sprintf("%s (type %s) does not implement bstr.Renderer with a constant MaxLen", expr, typ)).
		WithContext("expr", expr).
		WithContext("type", typ)
}

// ErrInvalidDestination reports a writer destination that is not *bstr.Array.
func ErrInvalidDestination(expr, typ string) *AfmtError {
	return NewTypeError(ErrCodeInvalidDestination,
		fmt.Sprintf("destination %s has type %s, want *bstr.Array[[N]byte]", expr, typ)).
		WithContext("expr", expr).
		WithContext("type", typ)
}

// ErrInvalidDirective reports a malformed //afmt: directive.
func ErrInvalidDirective(message string) *AfmtError {
	return NewTemplateError(ErrCodeInvalidDirective, message)
}
