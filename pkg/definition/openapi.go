package definition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"

	"github.com/goliatone/go-jsonform/pkg/form"
)

// ExtensionKey is the schema extension holding form-specific settings:
// order, hidden, model, widget, button, cmd, flow, labels and hints.
const ExtensionKey = "x-jsonform"

// OpenAPIOption customises FromOpenAPI.
type OpenAPIOption func(*openAPIConfig)

type openAPIConfig struct {
	externalRefs bool
	name         string
}

// WithExternalRefs allows $ref values pointing outside the document.
func WithExternalRefs(allowed bool) OpenAPIOption {
	return func(c *openAPIConfig) { c.externalRefs = allowed }
}

// WithName overrides the definition name, which defaults to the component
// name.
func WithName(name string) OpenAPIOption {
	return func(c *openAPIConfig) { c.name = name }
}

// FromOpenAPI builds a definition from components.schemas[component] of an
// OpenAPI 3 document. Properties are ordered by name unless the extension
// sets an explicit order; object properties become Node fields and arrays of
// objects become ListNode fields.
func FromOpenAPI(ctx context.Context, raw []byte, component string, options ...OpenAPIOption) (*form.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("definition: openapi document is empty")
	}
	cfg := openAPIConfig{name: component}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.externalRefs,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("definition: load openapi document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("definition: component %q: document has no components", component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("definition: component %q: %w", component, ErrNotFound)
	}

	conv := &schemaConverter{visiting: make(map[*openapi3.Schema]bool)}
	return conv.definition(cfg.name, ref.Value)
}

type schemaConverter struct {
	visiting map[*openapi3.Schema]bool
}

func (c *schemaConverter) definition(name string, schema *openapi3.Schema) (*form.Definition, error) {
	if c.visiting[schema] {
		return nil, fmt.Errorf("definition: schema %q is recursive", name)
	}
	c.visiting[schema] = true
	defer delete(c.visiting, schema)

	title := schema.Title
	if title == "" {
		title = humanize(name)
	}
	b := form.Define(name).Title(title).Help(schema.Description)

	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for prop := range schema.Properties {
		names = append(names, prop)
	}
	sort.Strings(names)

	for _, prop := range names {
		ref := schema.Properties[prop]
		if ref == nil || ref.Value == nil {
			continue
		}
		f, err := c.field(name, prop, ref, required[prop])
		if err != nil {
			return nil, fmt.Errorf("definition: %s.%s: %w", name, prop, err)
		}
		b.Field(prop, f)
	}
	return b.Build()
}

func (c *schemaConverter) field(parent, prop string, ref *openapi3.SchemaRef, required bool) (form.Field, error) {
	schema := ref.Value
	ext := extension(schema.Extensions)

	title := schema.Title
	if title == "" {
		title = humanize(prop)
	}
	options := []form.FieldOption{form.Required(required)}
	if order, ok := ext["order"]; ok {
		options = append(options, form.Order(cast.ToInt(order)))
	}
	if cast.ToBool(ext["hidden"]) {
		options = append(options, form.Hidden())
	}
	if schema.Default != nil {
		options = append(options, form.Default(schema.Default))
	}
	if schema.Description != "" {
		options = append(options, form.Hint("description", schema.Description))
	}
	if hints, ok := ext["hints"].(map[string]any); ok {
		keys := make([]string, 0, len(hints))
		for k := range hints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			options = append(options, form.Hint(k, hints[k]))
		}
	}

	if cast.ToBool(ext["button"]) {
		if cmd := cast.ToString(ext["cmd"]); cmd != "" {
			options = append(options, form.Cmd(cmd))
		}
		if flow := cast.ToString(ext["flow"]); flow != "" {
			options = append(options, form.Flow(flow))
		}
		return form.Button(title, options...), nil
	}
	if model := cast.ToString(ext["model"]); model != "" {
		return form.Link(title, model, options...), nil
	}

	typ := schemaType(schema.Type)
	switch typ {
	case openapi3.TypeObject:
		nested, err := c.definition(nestedName(parent, prop, ref.Ref), schema)
		if err != nil {
			return form.Field{}, err
		}
		return form.Node(title, nested, options...), nil
	case openapi3.TypeArray:
		items := schema.Items
		if items == nil || items.Value == nil || schemaType(items.Value.Type) != openapi3.TypeObject {
			return form.Field{}, errors.New("only arrays of objects are supported")
		}
		nested, err := c.definition(nestedName(parent, prop, items.Ref), items.Value)
		if err != nil {
			return form.Field{}, err
		}
		return form.ListNode(title, nested, options...), nil
	}

	if len(schema.Enum) > 0 {
		options = append(options, form.Choices(enumChoices(schema.Enum, ext["labels"])...))
	}
	if rules := schemaRules(typ, schema); rules != "" {
		options = append(options, form.Rules(rules))
	}

	switch typ {
	case openapi3.TypeString, "":
		switch {
		case schema.Format == "date":
			return form.Date(title, options...), nil
		case cast.ToString(ext["widget"]) == "textarea":
			return form.Text(title, options...), nil
		default:
			return form.String(title, options...), nil
		}
	case openapi3.TypeInteger:
		return form.Integer(title, options...), nil
	case openapi3.TypeNumber:
		return form.Float(title, options...), nil
	case openapi3.TypeBoolean:
		return form.Boolean(title, options...), nil
	default:
		return form.Field{}, fmt.Errorf("unsupported schema type %q", typ)
	}
}

func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range types.Slice() {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}

func extension(raw map[string]any) map[string]any {
	if mapped, ok := raw[ExtensionKey].(map[string]any); ok {
		return mapped
	}
	return map[string]any{}
}

func nestedName(parent, prop, ref string) string {
	if ref != "" {
		if idx := strings.LastIndex(ref, "/"); idx >= 0 {
			return ref[idx+1:]
		}
		return ref
	}
	return parent + "." + prop
}

func enumChoices(values []any, labels any) []form.Choice {
	labelMap, _ := labels.(map[string]any)
	out := make([]form.Choice, 0, len(values))
	for _, v := range values {
		key := cast.ToString(v)
		label := key
		if l, ok := labelMap[key]; ok {
			label = cast.ToString(l)
		}
		out = append(out, form.Choice{Value: normalizeNumber(v), Label: label})
	}
	return out
}

// normalizeNumber turns integral float64 enum values back into ints so they
// compare equal to coerced integer submissions.
func normalizeNumber(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int(f)
	}
	return v
}

func schemaRules(typ string, schema *openapi3.Schema) string {
	var rules []string
	switch typ {
	case openapi3.TypeString, "":
		if schema.Format == "email" {
			rules = append(rules, "email")
		}
		if schema.MinLength > 0 {
			rules = append(rules, fmt.Sprintf("min=%d", schema.MinLength))
		}
		if schema.MaxLength != nil {
			rules = append(rules, fmt.Sprintf("max=%d", *schema.MaxLength))
		}
	case openapi3.TypeInteger, openapi3.TypeNumber:
		if schema.Min != nil {
			rules = append(rules, "gte="+cast.ToString(*schema.Min))
		}
		if schema.Max != nil {
			rules = append(rules, "lte="+cast.ToString(*schema.Max))
		}
	}
	return strings.Join(rules, ",")
}
