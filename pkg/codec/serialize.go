package codec

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform/pkg/form"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Serialize renders inst and stores the snapshot used to validate the
// matching submission. A cache failure aborts the render.
func (c *Codec) Serialize(ctx context.Context, inst *form.Instance) (Output, error) {
	def := inst.Definition()
	out, err := c.build(inst)
	if err != nil {
		c.observer.ObserveRender(def.Name(), err)
		return Output{}, err
	}

	snap := formcache.Snapshot{
		DataFields:    modelKeys(inst),
		NonDataFields: inst.NonDataFields(),
	}
	key, err := c.cache.Put(ctx, "", snap)
	if err != nil {
		err = fmt.Errorf("codec: cache snapshot: %w", err)
		c.observer.ObserveRender(def.Name(), err)
		return Output{}, err
	}
	out.Model[KeyFormKey] = key

	c.observer.ObserveRender(def.Name(), nil)
	c.logger.Debug("form rendered",
		zap.String("form", def.Name()),
		zap.String("form_key", key),
		zap.Int("fields", len(snap.DataFields)),
	)
	return out, nil
}

func (c *Codec) build(inst *form.Instance) (Output, error) {
	def := inst.Definition()
	out := Output{
		Schema: Schema{
			Title:      c.clean(def.Title()),
			Type:       "object",
			Properties: make(map[string]Property),
			Required:   []string{},
		},
		Form:  []any{HelpItem{Type: "help", HelpValue: c.clean(def.HelpText())}},
		Model: make(map[string]any),
	}

	meta := def.Meta()
	for _, key := range RootOptions {
		if v, ok := meta[key]; ok {
			if out.Extensions == nil {
				out.Extensions = make(map[string]any)
			}
			out.Extensions[key] = v
		}
	}
	for _, key := range MetaOptions {
		if v, ok := meta[key]; ok {
			if out.Schema.Meta == nil {
				out.Schema.Meta = make(map[string]any)
			}
			out.Schema.Meta[key] = v
		}
	}

	if record := inst.Record(); record.IsPersisted() {
		out.Model[KeyObjectKey] = record.IdentityKey()
		out.Model[KeyModelType] = record.TypeName()
		out.Model[KeyUnicode] = record.Label()
	}

	for _, f := range inst.Fields() {
		if IsReservedKey(f.Name) {
			return Output{}, fmt.Errorf("%w: %q in form %q", ErrReservedField, f.Name, def.Name())
		}
		if value, ok := inst.Value(f.Name); ok {
			out.Model[f.Name] = value
		} else {
			out.Model[f.Name] = f.Default
		}

		// Hidden fields travel in the model only.
		if f.Hidden {
			continue
		}

		props := c.property(f)
		if len(f.Choices) > 0 {
			titleMap := c.choices(f.Choices)
			props["type"] = "select"
			props["titleMap"] = titleMap
			out.Form = append(out.Form, SelectItem{
				Key:      f.Name,
				Type:     "select",
				Title:    c.clean(f.Title),
				TitleMap: titleMap,
			})
		} else {
			out.Form = append(out.Form, f.Name)
		}
		out.Schema.Properties[f.Name] = props
		out.Schema.Order = append(out.Schema.Order, f.Name)
		if f.Required {
			out.Schema.Required = append(out.Schema.Required, f.Name)
		}
	}
	return out, nil
}

// property builds the schema entry of a single field, recursing into nested
// definitions.
func (c *Codec) property(f form.Field) Property {
	props := Property{
		"type":  string(f.Type),
		"title": c.clean(f.Title),
	}
	if !f.IsComposite() {
		for k, v := range f.Hints {
			if _, reserved := reservedHints[k]; reserved {
				continue
			}
			props[k] = v
		}
	}
	if f.IsComposite() {
		props["model_name"] = f.ModelName()
		props["add_cmd"] = DirectiveAddCmd
		props["list_cmd"] = DirectiveListCmd
		props["wf"] = DirectiveWorkflow
	}
	if f.IsNested() {
		props["schema"] = c.nestedSchema(f.Nested)
	}
	return props
}

func (c *Codec) nestedSchema(def *form.Definition) Schema {
	schema := Schema{
		Title:      c.clean(def.Title()),
		Type:       "object",
		Properties: make(map[string]Property),
		Required:   []string{},
	}
	for _, f := range def.Fields() {
		if f.Hidden {
			continue
		}
		props := c.property(f)
		if len(f.Choices) > 0 {
			props["type"] = "select"
			props["titleMap"] = c.choices(f.Choices)
		}
		schema.Properties[f.Name] = props
		schema.Order = append(schema.Order, f.Name)
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}

func (c *Codec) choices(in []form.Choice) []form.Choice {
	out := make([]form.Choice, len(in))
	for i, choice := range in {
		out[i] = form.Choice{Value: choice.Value, Label: c.clean(choice.Label)}
	}
	return out
}

// modelKeys lists every model key backed by a field, in registry order,
// followed by the identity keys when the record is persisted.
func modelKeys(inst *form.Instance) []string {
	fields := inst.Fields()
	names := make([]string, 0, len(fields)+3)
	for _, f := range fields {
		names = append(names, f.Name)
	}
	if inst.Record().IsPersisted() {
		names = append(names, KeyObjectKey, KeyModelType, KeyUnicode)
	}
	return names
}
