package form

import (
	"fmt"
	"strings"
)

// FieldBindingError reports a value that failed coercion, requiredness or a
// validation rule for one field. Field is a dotted path for nested values
// (for example "members.0.email").
type FieldBindingError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldBindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("form: field %q %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("form: field %q %s", e.Field, e.Message)
}

func (e *FieldBindingError) Unwrap() error { return e.Err }

// BindingErrors collects every per-field failure of a Bind call in registry
// order.
type BindingErrors []*FieldBindingError

func (e BindingErrors) Error() string {
	switch len(e) {
	case 0:
		return "form: no binding errors"
	case 1:
		return e[0].Error()
	}
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("form: %d fields failed binding: %s", len(e), strings.Join(parts, "; "))
}

// Unwrap exposes the individual errors to errors.Is/As.
func (e BindingErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, err := range e {
		out[i] = err
	}
	return out
}

// Fields groups messages by field path, matching the shape renderers accept
// for server-side error annotations.
func (e BindingErrors) Fields() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e))
	for _, err := range e {
		msg := err.Message
		if err.Err != nil {
			msg = fmt.Sprintf("%s: %v", err.Message, err.Err)
		}
		out[err.Field] = append(out[err.Field], msg)
	}
	return out
}

func (e BindingErrors) prefixed(prefix string) BindingErrors {
	out := make(BindingErrors, len(e))
	for i, err := range e {
		cp := *err
		cp.Field = prefix + "." + err.Field
		out[i] = &cp
	}
	return out
}
