package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a malformed schema document. It is fatal: a
// generation run never produces partial output from a broken schema set.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid schema document: %v", e.Err)
	}
	return fmt.Sprintf("invalid schema document %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Parser loads schema documents from a directory.
type Parser struct {
	dir string
}

// NewParser creates a parser rooted at the given schema directory.
func NewParser(dir string) *Parser {
	return &Parser{dir: dir}
}

// ParseAll parses every .yaml/.yml document in the schema directory.
// Files are visited in lexical order so repeated runs see the same
// schema sequence. Any malformed document aborts the whole parse.
func (p *Parser) ParseAll() ([]*SchemaDefinition, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", p.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(p.dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	schemas := make([]*SchemaDefinition, 0, len(paths))
	for _, path := range paths {
		s, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// ParseFile parses a single schema document.
func (p *Parser) ParseFile(path string) (*SchemaDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	return s, nil
}

// schemaDoc mirrors the raw document layout. Fields is kept as a yaml.Node
// so the declared field order survives decoding; a plain map would lose it.
type schemaDoc struct {
	Name       string        `yaml:"name"`
	Table      string        `yaml:"table"`
	Fields     yaml.Node     `yaml:"fields"`
	Relations  []relationDoc `yaml:"relations"`
	SoftDelete bool          `yaml:"soft_delete"`
	Timestamps *bool         `yaml:"timestamps"`
}

type relationDoc struct {
	Type          string `yaml:"type"`
	Target        string `yaml:"target"`
	BackPopulates string `yaml:"back_populates"`
	ForeignKey    string `yaml:"foreign_key"`
}

type fieldDoc struct {
	Type      string `yaml:"type"`
	Primary   bool   `yaml:"primary"`
	Unique    bool   `yaml:"unique"`
	Required  bool   `yaml:"required"`
	Nullable  *bool  `yaml:"nullable"`
	MaxLength int    `yaml:"max_length"`
	Index     bool   `yaml:"index"`
	Default   any    `yaml:"default"`
}

// Parse decodes one schema document.
func Parse(data []byte) (*SchemaDefinition, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc.Name == "" {
		return nil, fmt.Errorf("missing required key %q", "name")
	}
	if doc.Table == "" {
		return nil, fmt.Errorf("missing required key %q", "table")
	}

	fields, err := decodeFields(&doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", doc.Name, err)
	}

	relations := make([]RelationDefinition, 0, len(doc.Relations))
	for _, rel := range doc.Relations {
		relations = append(relations, RelationDefinition{
			Kind:          RelationKind(rel.Type),
			Target:        rel.Target,
			BackPopulates: rel.BackPopulates,
			ForeignKey:    rel.ForeignKey,
		})
	}

	timestamps := true
	if doc.Timestamps != nil {
		timestamps = *doc.Timestamps
	}

	return &SchemaDefinition{
		Name:       doc.Name,
		Table:      doc.Table,
		Fields:     fields,
		Relations:  relations,
		SoftDelete: doc.SoftDelete,
		Timestamps: timestamps,
	}, nil
}

// decodeFields walks the fields mapping node pair by pair, preserving the
// order fields were written in the document.
func decodeFields(node *yaml.Node) ([]FieldDefinition, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, fmt.Errorf("missing required key %q", "fields")
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("key %q must be a mapping of field name to field definition", "fields")
	}

	fields := make([]FieldDefinition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		specNode := node.Content[i+1]

		var spec fieldDoc
		if err := specNode.Decode(&spec); err != nil {
			return nil, fmt.Errorf("field %s: %w", nameNode.Value, err)
		}
		if spec.Type == "" {
			return nil, fmt.Errorf("field %s: missing required key %q", nameNode.Value, "type")
		}

		nullable := true
		if spec.Nullable != nil {
			nullable = *spec.Nullable
		}

		fields = append(fields, FieldDefinition{
			Name:      nameNode.Value,
			Type:      FieldType(spec.Type),
			Primary:   spec.Primary,
			Unique:    spec.Unique,
			Required:  spec.Required,
			Nullable:  nullable,
			MaxLength: spec.MaxLength,
			Index:     spec.Index,
			Default:   spec.Default,
		})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("key %q must declare at least one field", "fields")
	}
	return fields, nil
}
