package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSchemaFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

const widgetDoc = `name: Widget
table: widgets
fields:
  id:
    type: uuid
    primary: true
  title:
    type: string
    required: true
    nullable: false
`

func TestParse_Widget(t *testing.T) {
	s, err := Parse([]byte(widgetDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Name != "Widget" {
		t.Errorf("Name = %q, want Widget", s.Name)
	}
	if s.Table != "widgets" {
		t.Errorf("Table = %q, want widgets", s.Table)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(s.Fields))
	}
	if !s.Fields[0].Primary || s.Fields[0].Type != TypeUUID {
		t.Errorf("Fields[0] = %+v, want primary uuid", s.Fields[0])
	}
	if s.Fields[1].Nullable {
		t.Errorf("title should not be nullable")
	}
	if !s.Timestamps {
		t.Error("Timestamps should default to true")
	}
	if s.SoftDelete {
		t.Error("SoftDelete should default to false")
	}
}

func TestParse_FieldOrderPreserved(t *testing.T) {
	doc := `name: Thing
table: things
fields:
  zulu:
    type: string
    primary: true
  alpha:
    type: integer
  mike:
    type: boolean
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"zulu", "alpha", "mike"}
	if len(s.Fields) != len(want) {
		t.Fatalf("len(Fields) = %d, want %d", len(s.Fields), len(want))
	}
	for i, name := range want {
		if s.Fields[i].Name != name {
			t.Errorf("Fields[%d].Name = %q, want %q (document order must be preserved)", i, s.Fields[i].Name, name)
		}
	}
}

func TestParse_Defaults(t *testing.T) {
	doc := `name: Note
table: notes
fields:
  id:
    type: uuid
    primary: true
  body:
    type: text
    default: "empty"
  pinned:
    type: boolean
    nullable: false
timestamps: false
soft_delete: true
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := s.Field("body")
	if body == nil {
		t.Fatal("missing body field")
	}
	if !body.Nullable {
		t.Error("nullable should default to true")
	}
	if body.Default != "empty" {
		t.Errorf("Default = %v, want empty", body.Default)
	}
	if pinned := s.Field("pinned"); pinned.Nullable {
		t.Error("explicit nullable: false was not honored")
	}
	if s.Timestamps {
		t.Error("explicit timestamps: false was not honored")
	}
	if !s.SoftDelete {
		t.Error("explicit soft_delete: true was not honored")
	}
}

func TestParse_Relations(t *testing.T) {
	doc := `name: Post
table: posts
fields:
  id:
    type: uuid
    primary: true
relations:
  - type: many_to_one
    target: User
    back_populates: posts
    foreign_key: author_id
  - type: many_to_many
    target: Tag
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Relations) != 2 {
		t.Fatalf("len(Relations) = %d, want 2", len(s.Relations))
	}
	if s.Relations[0].Kind != ManyToOne || s.Relations[0].Target != "User" {
		t.Errorf("Relations[0] = %+v", s.Relations[0])
	}
	if s.Relations[0].ForeignKey != "author_id" || s.Relations[0].BackPopulates != "posts" {
		t.Errorf("Relations[0] options = %+v", s.Relations[0])
	}
	if s.Relations[1].Kind != ManyToMany || s.Relations[1].Target != "Tag" {
		t.Errorf("Relations[1] = %+v", s.Relations[1])
	}
}

func TestParse_MalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", "table: widgets\nfields:\n  id:\n    type: uuid\n"},
		{"missing table", "name: Widget\nfields:\n  id:\n    type: uuid\n"},
		{"missing fields", "name: Widget\ntable: widgets\n"},
		{"empty fields", "name: Widget\ntable: widgets\nfields: {}\n"},
		{"fields not a mapping", "name: Widget\ntable: widgets\nfields:\n  - id\n"},
		{"field missing type", "name: Widget\ntable: widgets\nfields:\n  id:\n    primary: true\n"},
		{"invalid yaml", "name: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "widget.yaml", widgetDoc)
	writeSchemaFile(t, dir, "another.yml", `name: Another
table: anothers
fields:
  id:
    type: integer
    primary: true
`)
	writeSchemaFile(t, dir, "ignored.txt", "not a schema")

	schemas, err := NewParser(dir).ParseAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("len(schemas) = %d, want 2", len(schemas))
	}
	// Lexical file order: another.yml before widget.yaml.
	if schemas[0].Name != "Another" || schemas[1].Name != "Widget" {
		t.Errorf("order = %s, %s; want Another, Widget", schemas[0].Name, schemas[1].Name)
	}
}

func TestParseAll_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeSchemaFile(t, dir, "good.yaml", widgetDoc)
	writeSchemaFile(t, dir, "broken.yaml", "name: Broken\n")

	schemas, err := NewParser(dir).ParseAll()
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
	if schemas != nil {
		t.Errorf("expected no partial result, got %d schemas", len(schemas))
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigurationError, got %T", err)
	}
}

func TestParseAll_MissingDirectory(t *testing.T) {
	if _, err := NewParser(filepath.Join(t.TempDir(), "nope")).ParseAll(); err == nil {
		t.Error("expected error for missing directory")
	}
}
