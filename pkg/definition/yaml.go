package definition

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-jsonform/pkg/form"
)

type documentFile struct {
	Forms []formFile `yaml:"forms"`
}

type formFile struct {
	Name   string         `yaml:"name"`
	Title  string         `yaml:"title"`
	Help   string         `yaml:"help"`
	Meta   map[string]any `yaml:"meta"`
	Fields []fieldFile    `yaml:"fields"`
}

type fieldFile struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Title    string         `yaml:"title"`
	Required *bool          `yaml:"required"`
	Order    int            `yaml:"order"`
	Default  any            `yaml:"default"`
	Hidden   bool           `yaml:"hidden"`
	Hints    map[string]any `yaml:"hints"`
	Choices  []form.Choice  `yaml:"choices"`
	Model    string         `yaml:"model"`
	Rules    string         `yaml:"rules"`
	Cmd      string         `yaml:"cmd"`
	Flow     string         `yaml:"flow"`
	// Form references another definition of the same file set for Node and
	// ListNode fields; Fields declares the sub-form inline instead.
	Form   string      `yaml:"form"`
	Fields []fieldFile `yaml:"fields"`
}

// Parse decodes a YAML (or JSON) declaration file. Nested fields may point at
// other forms declared in the same file through "form".
func Parse(data []byte, source string) ([]*form.Definition, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	b := newBuilder()
	if err := b.add(doc.Forms, source); err != nil {
		return nil, err
	}
	return b.buildAll()
}

// LoadFS parses every .yaml, .yml and .json file under fsys. Forms may
// reference each other across files.
func LoadFS(fsys fs.FS) ([]*form.Definition, error) {
	b := newBuilder()
	if fsys == nil {
		return nil, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDeclarationFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return b.add(doc.Forms, path)
	})
	if err != nil {
		return nil, err
	}
	return b.buildAll()
}

func isDeclarationFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}
	var doc documentFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
	}
	return doc, nil
}

// builder resolves form references lazily so declaration order does not
// matter, and rejects reference cycles.
type builder struct {
	raw      map[string]formFile
	sources  map[string]string
	order    []string
	built    map[string]*form.Definition
	visiting map[string]bool
}

func newBuilder() *builder {
	return &builder{
		raw:      make(map[string]formFile),
		sources:  make(map[string]string),
		built:    make(map[string]*form.Definition),
		visiting: make(map[string]bool),
	}
}

func (b *builder) add(forms []formFile, source string) error {
	for _, f := range forms {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("definition: file %s declares a form without a name", source)
		}
		if prev, exists := b.sources[name]; exists {
			return fmt.Errorf("definition: duplicate form %q (files %s and %s)", name, prev, source)
		}
		b.raw[name] = f
		b.sources[name] = source
		b.order = append(b.order, name)
	}
	return nil
}

func (b *builder) buildAll() ([]*form.Definition, error) {
	out := make([]*form.Definition, 0, len(b.order))
	for _, name := range b.order {
		def, err := b.resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func (b *builder) resolve(name string) (*form.Definition, error) {
	if def, ok := b.built[name]; ok {
		return def, nil
	}
	raw, ok := b.raw[name]
	if !ok {
		return nil, fmt.Errorf("definition: form %q is not declared", name)
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("definition: form %q references itself", name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	def, err := b.build(name, raw.Title, raw.Help, raw.Meta, raw.Fields)
	if err != nil {
		return nil, fmt.Errorf("definition: %s: %w", b.sources[name], err)
	}
	b.built[name] = def
	return def, nil
}

func (b *builder) build(name, title, help string, meta map[string]any, fields []fieldFile) (*form.Definition, error) {
	fb := form.Define(name).Title(title).Help(help)
	for _, key := range sortedMetaKeys(meta) {
		fb.Meta(key, meta[key])
	}
	for _, raw := range fields {
		f, err := b.field(name, raw)
		if err != nil {
			return nil, err
		}
		fb.Field(raw.Name, f)
	}
	return fb.Build()
}

func (b *builder) field(parent string, raw fieldFile) (form.Field, error) {
	var options []form.FieldOption
	if raw.Required != nil {
		options = append(options, form.Required(*raw.Required))
	}
	if raw.Order != 0 {
		options = append(options, form.Order(raw.Order))
	}
	if raw.Default != nil {
		options = append(options, form.Default(raw.Default))
	}
	if raw.Hidden {
		options = append(options, form.Hidden())
	}
	for _, key := range sortedMetaKeys(raw.Hints) {
		options = append(options, form.Hint(key, raw.Hints[key]))
	}
	if len(raw.Choices) > 0 {
		options = append(options, form.Choices(raw.Choices...))
	}
	if raw.Rules != "" {
		options = append(options, form.Rules(raw.Rules))
	}
	if raw.Cmd != "" {
		options = append(options, form.Cmd(raw.Cmd))
	}
	if raw.Flow != "" {
		options = append(options, form.Flow(raw.Flow))
	}

	title := raw.Title
	if title == "" {
		title = humanize(raw.Name)
	}

	switch form.FieldType(raw.Type) {
	case form.FieldTypeString, "":
		return form.String(title, options...), nil
	case form.FieldTypeText:
		return form.Text(title, options...), nil
	case form.FieldTypeInteger:
		return form.Integer(title, options...), nil
	case form.FieldTypeFloat:
		return form.Float(title, options...), nil
	case form.FieldTypeBoolean:
		return form.Boolean(title, options...), nil
	case form.FieldTypeDate:
		return form.Date(title, options...), nil
	case form.FieldTypeButton:
		return form.Button(title, options...), nil
	case form.FieldTypeModel:
		if raw.Model == "" {
			return form.Field{}, fmt.Errorf("field %q: model fields need a model name", raw.Name)
		}
		return form.Link(title, raw.Model, options...), nil
	case form.FieldTypeNode, form.FieldTypeListNode:
		nested, err := b.nested(parent, raw)
		if err != nil {
			return form.Field{}, err
		}
		if form.FieldType(raw.Type) == form.FieldTypeNode {
			return form.Node(title, nested, options...), nil
		}
		return form.ListNode(title, nested, options...), nil
	default:
		return form.Field{}, fmt.Errorf("field %q: unknown type %q", raw.Name, raw.Type)
	}
}

func (b *builder) nested(parent string, raw fieldFile) (*form.Definition, error) {
	switch {
	case raw.Form != "" && len(raw.Fields) > 0:
		return nil, fmt.Errorf("field %q: declare either form or fields, not both", raw.Name)
	case raw.Form != "":
		return b.resolve(raw.Form)
	case len(raw.Fields) > 0:
		return b.build(parent+"."+raw.Name, humanize(raw.Name), "", nil, raw.Fields)
	default:
		return nil, fmt.Errorf("field %q: nested fields need form or fields", raw.Name)
	}
}

func sortedMetaKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// humanize turns "code_name" into "Code Name".
func humanize(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
