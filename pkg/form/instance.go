package form

// Displayable is implemented by anything a form can be bound to: persisted
// records expose their identity, form-only instances report IsPersisted false.
type Displayable interface {
	IsPersisted() bool
	IdentityKey() string
	TypeName() string
	Label() string
}

// InstanceOption configures a bound instance.
type InstanceOption func(*Instance)

// WithActor attaches the acting user.
func WithActor(actor Actor) InstanceOption {
	return func(i *Instance) { i.actor = actor }
}

// WithRecord binds the instance to a persisted record whose identity is
// injected into the serialized model.
func WithRecord(record Displayable) InstanceOption {
	return func(i *Instance) { i.record = record }
}

// WithValues pre-populates the instance, see SetData.
func WithValues(values map[string]any) InstanceOption {
	return func(i *Instance) { i.pending = values }
}

// Instance is a request-scoped form bound from a Definition. It is not safe
// for concurrent use; each request creates, uses and discards its own.
type Instance struct {
	def     *Definition
	fields  []Field
	index   map[string]int
	values  map[string]any
	nodes   map[string]*Instance
	rows    map[string][]*Instance
	nonData []string
	actions []string
	actor   Actor
	record  Displayable
	pending map[string]any
}

// New binds a fresh instance. Nested definitions are bound too, so nested
// state is never shared with another instance.
func (d *Definition) New(options ...InstanceOption) *Instance {
	inst := &Instance{
		def:     d,
		fields:  d.Fields(),
		index:   make(map[string]int, len(d.fields)),
		values:  make(map[string]any),
		nodes:   make(map[string]*Instance),
		rows:    make(map[string][]*Instance),
		nonData: d.Actions(),
	}
	for i, f := range inst.fields {
		inst.index[f.Name] = i
	}
	for _, opt := range options {
		if opt != nil {
			opt(inst)
		}
	}
	for _, f := range inst.fields {
		if f.Type == FieldTypeNode {
			inst.nodes[f.Name] = f.Nested.New(WithActor(inst.actor))
		}
	}
	if inst.pending != nil {
		inst.SetData(inst.pending)
		inst.pending = nil
	}
	return inst
}

// Definition returns the definition the instance was bound from.
func (i *Instance) Definition() *Definition { return i.def }

// Actor returns the acting user, if any.
func (i *Instance) Actor() Actor { return i.actor }

// Record returns the bound persisted record, or the instance itself when the
// form is not backed by one.
func (i *Instance) Record() Displayable {
	if i.record != nil {
		return i.record
	}
	return i
}

// IsPersisted reports false: a bare form instance has no stored identity.
func (i *Instance) IsPersisted() bool { return false }

// IdentityKey returns an empty key.
func (i *Instance) IdentityKey() string { return "" }

// TypeName returns the definition name.
func (i *Instance) TypeName() string { return i.def.Name() }

// Label returns the definition title.
func (i *Instance) Label() string { return i.def.Title() }

// Fields returns the bound descriptors in registry order.
func (i *Instance) Fields() []Field {
	out := make([]Field, len(i.fields))
	copy(out, i.fields)
	return out
}

// Field looks up a bound descriptor.
func (i *Instance) Field(name string) (Field, bool) {
	idx, ok := i.index[name]
	if !ok {
		return Field{}, false
	}
	return i.fields[idx], true
}

// NonDataFields returns the action-only field names.
func (i *Instance) NonDataFields() []string {
	return append([]string(nil), i.nonData...)
}

// SetNonDataFields replaces the action-only list, typically with the list
// captured when the form was rendered.
func (i *Instance) SetNonDataFields(names []string) {
	i.nonData = append([]string(nil), names...)
}

// IsNonData reports whether name is currently treated as action-only.
func (i *Instance) IsNonData(name string) bool {
	for _, n := range i.nonData {
		if n == name {
			return true
		}
	}
	return false
}

// Actions returns the action-only fields pressed in the last Bind.
func (i *Instance) Actions() []string {
	return append([]string(nil), i.actions...)
}

// Node returns the nested instance bound for a Node field.
func (i *Instance) Node(name string) (*Instance, bool) {
	node, ok := i.nodes[name]
	return node, ok
}

// Rows returns the nested instances bound for a ListNode field.
func (i *Instance) Rows(name string) []*Instance {
	return append([]*Instance(nil), i.rows[name]...)
}

// AppendRow binds a new row for a ListNode field and returns it.
func (i *Instance) AppendRow(name string) (*Instance, bool) {
	f, ok := i.Field(name)
	if !ok || f.Type != FieldTypeListNode {
		return nil, false
	}
	row := f.Nested.New(WithActor(i.actor))
	i.rows[name] = append(i.rows[name], row)
	return row, true
}

// Value returns the current value of a field. Nested fields always report a
// value: a map for Node fields and a slice of maps for ListNode fields.
func (i *Instance) Value(name string) (any, bool) {
	f, ok := i.Field(name)
	if !ok {
		return nil, false
	}
	switch f.Type {
	case FieldTypeNode:
		return i.nodes[name].Values(), true
	case FieldTypeListNode:
		rows := i.rows[name]
		out := make([]any, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Values())
		}
		return out, true
	}
	v, ok := i.values[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// SetValue assigns a raw value without coercion.
func (i *Instance) SetValue(name string, value any) bool {
	f, ok := i.Field(name)
	if !ok {
		return false
	}
	switch f.Type {
	case FieldTypeNode:
		if data, ok := value.(map[string]any); ok {
			i.nodes[name].SetData(data)
		}
	case FieldTypeListNode:
		i.rows[name] = nil
		for _, item := range asSlice(value) {
			data, ok := item.(map[string]any)
			if !ok {
				continue
			}
			row, _ := i.AppendRow(name)
			row.SetData(data)
		}
	default:
		i.values[name] = value
	}
	return true
}

// SetData fills known fields from data. Unknown keys are ignored.
func (i *Instance) SetData(data map[string]any) *Instance {
	for _, f := range i.fields {
		if v, ok := data[f.Name]; ok {
			i.SetValue(f.Name, v)
		}
	}
	return i
}

// Values returns the data-field values currently present, nested values
// included. Action-only fields are omitted.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any)
	for _, f := range i.fields {
		if f.IsAction() || i.IsNonData(f.Name) {
			continue
		}
		if v, ok := i.Value(f.Name); ok {
			out[f.Name] = v
		}
	}
	return out
}

func asSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}
