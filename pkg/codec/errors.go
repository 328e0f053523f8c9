package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormKeyMissing is returned when a validated submission carries no
	// form_key.
	ErrFormKeyMissing = errors.New("codec: submission has no form_key")
	// ErrCacheMiss is returned when the snapshot for a form_key is gone.
	ErrCacheMiss = errors.New("codec: form can no longer be validated, render it again")
	// ErrReservedField is returned when a definition declares a field named
	// like one of the injected model keys.
	ErrReservedField = errors.New("codec: field name is reserved")
)

// FieldMismatchError reports a submission whose keys do not match the fields
// offered by the render it claims to come from. Missing is only populated in
// strict mode.
type FieldMismatchError struct {
	Extra   []string
	Missing []string
}

func (e *FieldMismatchError) Error() string {
	var parts []string
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected fields: "+strings.Join(e.Extra, ", "))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("codec: form keys do not match (%s)", strings.Join(parts, "; "))
}
