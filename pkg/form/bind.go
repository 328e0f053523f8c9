package form

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var (
	errNotAChoice  = errors.New("value is not one of the offered choices")
	errNotAnObject = errors.New("expected an object")
	errNotAList    = errors.New("expected a list of objects")
	errNotWhole    = errors.New("expected a whole number")

	validatorOnce  sync.Once
	fieldValidator *validator.Validate
)

func rulesValidator() *validator.Validate {
	validatorOnce.Do(func() {
		fieldValidator = validator.New()
	})
	return fieldValidator
}

// Coerce converts a raw inbound value into the descriptor's type. Nil stays
// nil. Nested fields are not handled here, see Instance.Bind.
func (f Field) Coerce(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var (
		value any
		err   error
	)
	switch f.Type {
	case FieldTypeString, FieldTypeText, FieldTypeModel:
		value, err = cast.ToStringE(raw)
	case FieldTypeInteger:
		value, err = coerceInt(raw)
	case FieldTypeFloat:
		value, err = cast.ToFloat64E(raw)
	case FieldTypeBoolean:
		value, err = cast.ToBoolE(raw)
	case FieldTypeDate:
		value, err = coerceDate(raw)
	default:
		value = raw
	}
	if err != nil {
		return nil, err
	}
	if len(f.Choices) > 0 && !isEmpty(value) && !f.offers(value) {
		return nil, errNotAChoice
	}
	return value, nil
}

// Validate applies requiredness and the descriptor's Rules to a coerced value.
func (f Field) Validate(value any) *FieldBindingError {
	if isEmpty(value) {
		if f.Required {
			return &FieldBindingError{Field: f.Name, Message: "is required"}
		}
		return nil
	}
	if f.Rules == "" {
		return nil
	}
	if err := rulesValidator().Var(value, f.Rules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &FieldBindingError{Field: f.Name, Message: fmt.Sprintf("failed rule %q", verrs[0].Tag())}
		}
		return &FieldBindingError{Field: f.Name, Message: "failed validation", Err: err}
	}
	return nil
}

func (f Field) offers(value any) bool {
	want := fmt.Sprint(value)
	for _, c := range f.Choices {
		if fmt.Sprint(c.Value) == want {
			return true
		}
	}
	return false
}

// coerceInt reads strings as base 10 and refuses to truncate fractions.
func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 0)
		if err != nil {
			return 0, errNotWhole
		}
		return int(n), nil
	case float64:
		return wholeFloat(v)
	case float32:
		return wholeFloat(float64(v))
	}
	return cast.ToIntE(raw)
}

func wholeFloat(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) ||
		v >= math.MaxInt || v < math.MinInt {
		return 0, errNotWhole
	}
	return int(v), nil
}

func coerceDate(raw any) (string, error) {
	if s, ok := raw.(string); ok {
		if s == "" {
			return "", nil
		}
		t, err := time.Parse(DateLayout, s)
		if err == nil {
			return t.Format(DateLayout), nil
		}
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if v == "" {
			return false
		}
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return true
	default:
		if n, err := cast.ToFloat64E(v); err == nil {
			return n != 0
		}
		return true
	}
}

// Bind coerces and validates data onto the instance. Keys outside the
// definition are ignored here; structural checks against the rendered form
// happen before binding. Action-only fields with a truthy value are recorded
// as pressed. Required data fields missing from data fail unless they carry a
// default, which is then applied.
func (i *Instance) Bind(data map[string]any) error {
	var errs BindingErrors
	i.actions = nil

	for _, f := range i.fields {
		raw, provided := data[f.Name]
		if f.IsAction() || i.IsNonData(f.Name) {
			if provided && truthy(raw) {
				i.actions = append(i.actions, f.Name)
			}
			continue
		}

		switch f.Type {
		case FieldTypeNode:
			if provided {
				errs = append(errs, i.bindNode(f, raw)...)
			}
			continue
		case FieldTypeListNode:
			if provided {
				errs = append(errs, i.bindRows(f, raw)...)
			}
			continue
		}

		if !provided || raw == nil {
			if f.Default != nil {
				i.values[f.Name] = f.Default
				continue
			}
			if !provided {
				delete(i.values, f.Name)
			}
		}

		value, err := f.Coerce(raw)
		if err != nil {
			errs = append(errs, &FieldBindingError{Field: f.Name, Message: "has an invalid value", Err: err})
			continue
		}
		if ferr := f.Validate(value); ferr != nil {
			errs = append(errs, ferr)
			continue
		}
		if value == nil {
			delete(i.values, f.Name)
			continue
		}
		i.values[f.Name] = value
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (i *Instance) bindNode(f Field, raw any) BindingErrors {
	if raw == nil {
		return nil
	}
	data, ok := raw.(map[string]any)
	if !ok {
		return BindingErrors{{Field: f.Name, Message: "has an invalid value", Err: errNotAnObject}}
	}
	node := f.Nested.New(WithActor(i.actor))
	errs := node.bindNested(data)
	i.nodes[f.Name] = node
	return errs.prefixed(f.Name)
}

func (i *Instance) bindRows(f Field, raw any) BindingErrors {
	if raw == nil {
		i.rows[f.Name] = nil
		return nil
	}
	items := asSlice(raw)
	if items == nil {
		return BindingErrors{{Field: f.Name, Message: "has an invalid value", Err: errNotAList}}
	}
	var errs BindingErrors
	rows := make([]*Instance, 0, len(items))
	for idx, item := range items {
		path := f.Name + "." + strconv.Itoa(idx)
		data, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, &FieldBindingError{Field: path, Message: "has an invalid value", Err: errNotAnObject})
			continue
		}
		row := f.Nested.New(WithActor(i.actor))
		errs = append(errs, row.bindNested(data).prefixed(path)...)
		rows = append(rows, row)
	}
	i.rows[f.Name] = rows
	return errs
}

// bindNested binds a nested payload. Nested payloads are not covered by the
// rendered-form snapshot, so unknown keys are rejected here.
func (i *Instance) bindNested(data map[string]any) BindingErrors {
	var errs BindingErrors
	for _, key := range sortedKeys(data) {
		if _, ok := i.index[key]; !ok {
			errs = append(errs, &FieldBindingError{Field: key, Message: "is not part of the form"})
		}
	}
	if err := i.Bind(data); err != nil {
		var berrs BindingErrors
		if errors.As(err, &berrs) {
			errs = append(errs, berrs...)
		}
	}
	return errs
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
