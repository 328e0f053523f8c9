package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	errDefinitionNameMissing = errors.New("form: definition name is required")
	errFieldNameMissing      = errors.New("form: field name is required")
)

// Definition is the immutable, ordered field table of a form.
type Definition struct {
	name    string
	title   string
	help    string
	meta    map[string]any
	fields  []Field
	index   map[string]int
	actions []string
}

// Name returns the definition identifier.
func (d *Definition) Name() string { return d.name }

// Title returns the display title.
func (d *Definition) Title() string { return d.title }

// HelpText returns the help text rendered above the fields.
func (d *Definition) HelpText() string { return d.help }

// Meta returns a copy of the form-level display options.
func (d *Definition) Meta() map[string]any {
	if len(d.meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(d.meta))
	for k, v := range d.meta {
		out[k] = v
	}
	return out
}

// Fields returns the descriptors in registry order.
func (d *Definition) Fields() []Field {
	out := make([]Field, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.clone()
	}
	return out
}

// Field looks up a descriptor by name.
func (d *Definition) Field(name string) (Field, bool) {
	idx, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[idx].clone(), true
}

// Actions returns the names of the action-only fields in registry order.
func (d *Definition) Actions() []string {
	return append([]string(nil), d.actions...)
}

// Builder assembles a Definition from an explicit declaration list.
type Builder struct {
	name    string
	title   string
	help    string
	meta    map[string]any
	entries []Field
	errs    []error
}

// Define starts a new form definition.
func Define(name string) *Builder {
	return &Builder{name: strings.TrimSpace(name)}
}

// Title sets the display title.
func (b *Builder) Title(title string) *Builder {
	b.title = title
	return b
}

// Help sets the help text.
func (b *Builder) Help(help string) *Builder {
	b.help = help
	return b
}

// Meta records a form-level display option such as "inline_edit". Only
// whitelisted options reach the serialized output.
func (b *Builder) Meta(key string, value any) *Builder {
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Field registers a descriptor under name. The registration key becomes the
// descriptor's Name.
func (b *Builder) Field(name string, field Field) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		b.errs = append(b.errs, errFieldNameMissing)
		return b
	}
	field.Name = name
	b.entries = append(b.entries, field.clone())
	return b
}

// Fields registers several descriptors that already carry their names, for
// example descriptors produced by a definition loader.
func (b *Builder) Fields(fields ...Field) *Builder {
	for _, f := range fields {
		b.Field(f.Name, f)
	}
	return b
}

// Build validates the declarations and returns the Definition.
func (b *Builder) Build() (*Definition, error) {
	if b.name == "" {
		return nil, errDefinitionNameMissing
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("form %q: %w", b.name, errors.Join(b.errs...))
	}

	seen := make(map[string]struct{}, len(b.entries))
	for _, f := range b.entries {
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("form %q: duplicate field %q", b.name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := validateField(f); err != nil {
			return nil, fmt.Errorf("form %q: field %q: %w", b.name, f.Name, err)
		}
	}

	fields := make([]Field, len(b.entries))
	copy(fields, b.entries)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})

	def := &Definition{
		name:   b.name,
		title:  b.title,
		help:   b.help,
		meta:   b.meta,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		def.index[f.Name] = i
		if f.IsAction() {
			def.actions = append(def.actions, f.Name)
		}
	}
	return def, nil
}

// MustBuild panics when Build fails. Intended for package-level declarations.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func validateField(f Field) error {
	switch f.Type {
	case FieldTypeString, FieldTypeText, FieldTypeInteger, FieldTypeFloat,
		FieldTypeBoolean, FieldTypeDate, FieldTypeButton, FieldTypeModel:
	case FieldTypeNode, FieldTypeListNode:
		if f.Nested == nil {
			return errors.New("nested definition is required")
		}
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	if len(f.Choices) > 0 && (f.IsComposite() || f.IsAction()) {
		return errors.New("choices are only supported on scalar fields")
	}
	return nil
}
