package form

// FieldType tags a descriptor with the kind of value it carries.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeText     FieldType = "text"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeButton   FieldType = "button"
	FieldTypeModel    FieldType = "model"
	FieldTypeNode     FieldType = "Node"
	FieldTypeListNode FieldType = "ListNode"
)

// DateLayout is the wire format used for date fields.
const DateLayout = "2006-01-02"

// Choice is one (value, label) pair offered by a select field.
type Choice struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Field describes a single form field. Descriptors are anonymous until they are
// registered on a Builder, which assigns Name from the registration key.
type Field struct {
	Name     string         `json:"name"`
	Title    string         `json:"title"`
	Type     FieldType      `json:"type"`
	Required bool           `json:"required"`
	Order    int            `json:"order,omitempty"`
	Default  any            `json:"default,omitempty"`
	Hidden   bool           `json:"hidden,omitempty"`
	Hints    map[string]any `json:"hints,omitempty"`
	Choices  []Choice       `json:"choices,omitempty"`
	// Model names the record type a model field links to, or the nested
	// definition for Node/ListNode fields when left empty.
	Model string `json:"model,omitempty"`
	// Nested holds the sub-form bound for Node and ListNode fields.
	Nested *Definition `json:"-"`
	// Rules is a go-playground/validator tag applied to coerced values.
	Rules string `json:"rules,omitempty"`
}

// IsAction reports whether the field only triggers a command and carries no
// data value.
func (f Field) IsAction() bool {
	return f.Type == FieldTypeButton
}

// IsComposite reports whether the field's value is itself a record or a
// nested form.
func (f Field) IsComposite() bool {
	switch f.Type {
	case FieldTypeModel, FieldTypeNode, FieldTypeListNode:
		return true
	default:
		return false
	}
}

// IsNested reports whether the field embeds a sub-form.
func (f Field) IsNested() bool {
	return f.Type == FieldTypeNode || f.Type == FieldTypeListNode
}

// ModelName returns the record or sub-form name referenced by a composite
// field.
func (f Field) ModelName() string {
	if f.Model != "" {
		return f.Model
	}
	if f.Nested != nil {
		return f.Nested.Name()
	}
	return ""
}

func (f Field) clone() Field {
	out := f
	if f.Hints != nil {
		out.Hints = make(map[string]any, len(f.Hints))
		for k, v := range f.Hints {
			out.Hints[k] = v
		}
	}
	if f.Choices != nil {
		out.Choices = append([]Choice(nil), f.Choices...)
	}
	return out
}

// FieldOption customises a descriptor created by one of the constructors.
type FieldOption func(*Field)

// Optional marks the field as not required.
func Optional() FieldOption {
	return func(f *Field) { f.Required = false }
}

// Required sets the requiredness flag explicitly.
func Required(required bool) FieldOption {
	return func(f *Field) { f.Required = required }
}

// Order sets the explicit ordering key. Fields sharing a key keep their
// declaration order.
func Order(order int) FieldOption {
	return func(f *Field) { f.Order = order }
}

// Default sets the value used when the instance has no bound value.
func Default(value any) FieldOption {
	return func(f *Field) { f.Default = value }
}

// Hidden marks the field as transport-only: it travels in the model but is
// never rendered.
func Hidden() FieldOption {
	return func(f *Field) { f.Hidden = true }
}

// Hint attaches a rendering hint copied into the field's schema properties.
func Hint(name string, value any) FieldOption {
	return func(f *Field) {
		if f.Hints == nil {
			f.Hints = make(map[string]any)
		}
		f.Hints[name] = value
	}
}

// Choices turns the field into a select widget offering the given pairs.
func Choices(choices ...Choice) FieldOption {
	return func(f *Field) { f.Choices = append([]Choice(nil), choices...) }
}

// Rules attaches a validator tag such as "email" or "min=3,max=64".
func Rules(tag string) FieldOption {
	return func(f *Field) { f.Rules = tag }
}

// Cmd sets the command a button triggers.
func Cmd(cmd string) FieldOption {
	return Hint("cmd", cmd)
}

// Flow sets the workflow transition a button triggers.
func Flow(flow string) FieldOption {
	return Hint("flow", flow)
}

func newField(typ FieldType, title string, required bool, options []FieldOption) Field {
	f := Field{Type: typ, Title: title, Required: required}
	for _, opt := range options {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// String declares a single-line text field.
func String(title string, options ...FieldOption) Field {
	return newField(FieldTypeString, title, true, options)
}

// Text declares a multi-line text field.
func Text(title string, options ...FieldOption) Field {
	return newField(FieldTypeText, title, true, options)
}

// Integer declares an integer field.
func Integer(title string, options ...FieldOption) Field {
	return newField(FieldTypeInteger, title, true, options)
}

// Float declares a floating point field.
func Float(title string, options ...FieldOption) Field {
	return newField(FieldTypeFloat, title, true, options)
}

// Boolean declares a checkbox field.
func Boolean(title string, options ...FieldOption) Field {
	return newField(FieldTypeBoolean, title, true, options)
}

// Date declares a date field using DateLayout on the wire.
func Date(title string, options ...FieldOption) Field {
	return newField(FieldTypeDate, title, true, options)
}

// Button declares an action-only field. Buttons are never required.
func Button(title string, options ...FieldOption) Field {
	f := newField(FieldTypeButton, title, false, options)
	f.Required = false
	return f
}

// Link declares a field referencing another record by key.
func Link(title, model string, options ...FieldOption) Field {
	f := newField(FieldTypeModel, title, true, options)
	f.Model = model
	return f
}

// Node declares a single nested sub-form.
func Node(title string, nested *Definition, options ...FieldOption) Field {
	f := newField(FieldTypeNode, title, false, options)
	f.Nested = nested
	return f
}

// ListNode declares a repeating group of sub-forms.
func ListNode(title string, nested *Definition, options ...FieldOption) Field {
	f := newField(FieldTypeListNode, title, false, options)
	f.Nested = nested
	return f
}
