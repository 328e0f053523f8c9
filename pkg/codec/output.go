package codec

import (
	"github.com/goliatone/go-jsonform/internal/jsonx"
	"github.com/goliatone/go-jsonform/pkg/form"
)

// Property is the schema entry for one field. It always carries "type" and
// "title"; selects add their titleMap and composite fields add the model
// directives.
type Property map[string]any

// Schema is the "schema" block of an Output.
type Schema struct {
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
	Meta       map[string]any      `json:"meta,omitempty"`
	// Order lists rendered property names in registry order. It is not part
	// of the document; clients use the form list instead.
	Order []string `json:"-"`
}

// HelpItem is the literal help entry that opens every render list.
type HelpItem struct {
	Type      string `json:"type"`
	HelpValue string `json:"helpvalue"`
}

// SelectItem replaces the bare field name in the render list for fields that
// offer choices.
type SelectItem struct {
	Key      string        `json:"key"`
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	TitleMap []form.Choice `json:"titleMap"`
}

// Output is a serialized form. Form holds HelpItem, SelectItem and string
// entries in render order.
type Output struct {
	Schema     Schema
	Form       []any
	Model      map[string]any
	Extensions map[string]any
}

// FormKey returns the snapshot key injected into the model.
func (o Output) FormKey() string {
	key, _ := o.Model[KeyFormKey].(string)
	return key
}

// MarshalJSON emits schema, form and model plus the root extensions.
func (o Output) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(o.Extensions)+3)
	for k, v := range o.Extensions {
		doc[k] = v
	}
	items := o.Form
	if items == nil {
		items = []any{}
	}
	model := o.Model
	if model == nil {
		model = map[string]any{}
	}
	doc["schema"] = o.Schema
	doc["form"] = items
	doc["model"] = model
	return jsonx.Marshal(doc)
}
