// Package prompt fills a serialized form from the terminal and returns the
// submission a client would post back.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/form"
)

// Option configures a Prompter.
type Option func(*Prompter)

// WithDriver overrides the survey driver.
func WithDriver(driver Driver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithPressAll makes every button default to pressed. Useful for
// single-button forms driven from scripts.
func WithPressAll(press bool) Option {
	return func(p *Prompter) { p.pressAll = press }
}

// Prompter walks the render list of an Output and asks for each entry.
type Prompter struct {
	driver   Driver
	pressAll bool
}

// New constructs a Prompter using the survey driver unless overridden.
func New(options ...Option) *Prompter {
	p := &Prompter{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = NewSurveyDriver()
	}
	return p
}

var errRequired = errors.New("a value is required")

// Fill prompts for every rendered entry of out and returns the submission.
// Model entries that are not rendered, such as hidden fields, form_key and
// the record identity, are carried over unchanged.
func (p *Prompter) Fill(ctx context.Context, out codec.Output) (map[string]any, error) {
	data := make(map[string]any, len(out.Model))
	for k, v := range out.Model {
		data[k] = v
	}
	required := toSet(out.Schema.Required)

	for _, item := range out.Form {
		switch entry := item.(type) {
		case codec.HelpItem:
			if strings.TrimSpace(entry.HelpValue) == "" {
				continue
			}
			if err := p.driver.Show(ctx, entry.HelpValue); err != nil {
				return nil, err
			}
		case codec.SelectItem:
			value, err := p.selectValue(ctx, entry.Title, entry.TitleMap, out.Model[entry.Key])
			if err != nil {
				return nil, fmt.Errorf("prompt: %s: %w", entry.Key, err)
			}
			data[entry.Key] = value
		case string:
			props, ok := out.Schema.Properties[entry]
			if !ok {
				return nil, fmt.Errorf("%w: %q has no schema entry", ErrUnsupportedField, entry)
			}
			value, err := p.ask(ctx, props, out.Model[entry], required[entry])
			if err != nil {
				return nil, fmt.Errorf("prompt: %s: %w", entry, err)
			}
			data[entry] = value
		default:
			return nil, fmt.Errorf("%w: render entry %T", ErrUnsupportedField, item)
		}
	}
	return data, nil
}

func (p *Prompter) ask(ctx context.Context, props codec.Property, current any, required bool) (any, error) {
	title := cast.ToString(props["title"])
	help := cast.ToString(props["description"])
	typ := cast.ToString(props["type"])
	q := TextQuestion{Title: title, Help: help}

	switch form.FieldType(typ) {
	case form.FieldTypeString, form.FieldTypeModel:
		if cast.ToString(props["widget"]) == "password" {
			q.Kind = TextSecret
		}
		return p.text(ctx, q, current, required, asString)
	case form.FieldTypeText:
		q.Kind = TextMultiline
		return p.text(ctx, q, current, required, asString)
	case form.FieldTypeDate, form.FieldTypeInteger, form.FieldTypeFloat:
		field := form.Field{Type: form.FieldType(typ)}
		return p.text(ctx, q, current, required, field.Coerce)
	case form.FieldTypeBoolean:
		return p.driver.Toggle(ctx, Toggle{Title: title, Help: help, Default: cast.ToBool(current)})
	case form.FieldTypeButton:
		return p.driver.Toggle(ctx, Toggle{Title: title + "?", Help: help, Default: p.pressAll})
	case form.FieldTypeNode:
		schema, ok := props["schema"].(codec.Schema)
		if !ok {
			return nil, fmt.Errorf("%w: node %q carries no schema", ErrUnsupportedField, title)
		}
		currentMap, _ := current.(map[string]any)
		return p.nested(ctx, schema, currentMap)
	case form.FieldTypeListNode:
		schema, ok := props["schema"].(codec.Schema)
		if !ok {
			return nil, fmt.Errorf("%w: list %q carries no schema", ErrUnsupportedField, title)
		}
		return p.rows(ctx, title, schema)
	case "select":
		choices, _ := props["titleMap"].([]form.Choice)
		return p.selectValue(ctx, title, choices, current)
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedField, typ)
	}
}

// text asks until the answer parses. Secrets never echo the current value.
func (p *Prompter) text(ctx context.Context, q TextQuestion, current any, required bool, parse func(any) (any, error)) (any, error) {
	q.Check = func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errRequired
			}
			return nil
		}
		_, err := parse(s)
		return err
	}
	if current != nil && q.Kind != TextSecret {
		q.Default = cast.ToString(current)
	}
	for {
		raw, err := p.driver.Text(ctx, q)
		if err != nil {
			return nil, err
		}
		// Drivers without inline validation get the message and a retry.
		if verr := q.Check(raw); verr != nil {
			if err := p.driver.Show(ctx, fmt.Sprintf("%s: %v", q.Title, verr)); err != nil {
				return nil, err
			}
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, nil
		}
		return parse(raw)
	}
}

func (p *Prompter) selectValue(ctx context.Context, title string, choices []form.Choice, current any) (any, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: select %q has no choices", ErrUnsupportedField, title)
	}
	selected := 0
	for i, choice := range choices {
		if current != nil && fmt.Sprint(choice.Value) == fmt.Sprint(current) {
			selected = i
		}
	}
	idx, err := p.driver.Choose(ctx, ChoiceQuestion{Title: title, Choices: choices, Selected: selected})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(choices) {
		return nil, fmt.Errorf("prompt: selection %d out of range", idx)
	}
	return choices[idx].Value, nil
}

func (p *Prompter) nested(ctx context.Context, schema codec.Schema, current map[string]any) (map[string]any, error) {
	required := toSet(schema.Required)
	out := make(map[string]any, len(schema.Order))
	for _, name := range schema.Order {
		value, err := p.ask(ctx, schema.Properties[name], current[name], required[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if value != nil {
			out[name] = value
		}
	}
	return out, nil
}

func (p *Prompter) rows(ctx context.Context, title string, schema codec.Schema) ([]any, error) {
	rows := []any{}
	for {
		more, err := p.driver.Toggle(ctx, Toggle{Title: fmt.Sprintf("Add %s entry?", title)})
		if err != nil {
			return nil, err
		}
		if !more {
			return rows, nil
		}
		row, err := p.nested(ctx, schema, nil)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
}

func asString(raw any) (any, error) {
	return cast.ToStringE(raw)
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
