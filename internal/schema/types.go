// Package schema provides the typed representation of declarative entity
// schemas: parsing from YAML documents, structural validation, and the
// definitions consumed by the code generators.
package schema

// FieldType is the declared storage type of a schema field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInteger  FieldType = "integer"
	TypeFloat    FieldType = "float"
	TypeBoolean  FieldType = "boolean"
	TypeDatetime FieldType = "datetime"
	TypeDate     FieldType = "date"
	TypeTime     FieldType = "time"
	TypeUUID     FieldType = "uuid"
	TypeText     FieldType = "text"
	TypeJSON     FieldType = "json"
	TypeBinary   FieldType = "binary"
)

// ValidFieldTypes is the closed set of supported field types.
var ValidFieldTypes = map[FieldType]bool{
	TypeString:   true,
	TypeInteger:  true,
	TypeFloat:    true,
	TypeBoolean:  true,
	TypeDatetime: true,
	TypeDate:     true,
	TypeTime:     true,
	TypeUUID:     true,
	TypeText:     true,
	TypeJSON:     true,
	TypeBinary:   true,
}

// RelationKind is the cardinality of a relation between two entities.
type RelationKind string

const (
	OneToMany  RelationKind = "one_to_many"
	ManyToOne  RelationKind = "many_to_one"
	ManyToMany RelationKind = "many_to_many"
)

// ValidRelationKinds is the closed set of supported relation kinds.
var ValidRelationKinds = map[RelationKind]bool{
	OneToMany:  true,
	ManyToOne:  true,
	ManyToMany: true,
}

// FieldDefinition describes a single persistent field of an entity.
type FieldDefinition struct {
	Name      string
	Type      FieldType
	Primary   bool
	Unique    bool
	Required  bool
	Nullable  bool // defaults to true when omitted in the document
	MaxLength int  // 0 means unset
	Index     bool
	Default   any // literal default value, nil when unset
}

// RelationDefinition describes a relation from the owning entity to a target.
type RelationDefinition struct {
	Kind          RelationKind
	Target        string
	BackPopulates string
	ForeignKey    string
}

// SchemaDefinition is the parsed representation of one schema document.
// It is immutable after parsing; the generators never modify it.
type SchemaDefinition struct {
	Name       string
	Table      string
	Fields     []FieldDefinition // document order
	Relations  []RelationDefinition
	SoftDelete bool
	Timestamps bool // defaults to true when omitted in the document
}

// PrimaryField returns the primary field, or nil if the schema has none.
// Validation guarantees exactly one primary field on accepted schemas.
func (s *SchemaDefinition) PrimaryField() *FieldDefinition {
	for i := range s.Fields {
		if s.Fields[i].Primary {
			return &s.Fields[i]
		}
	}
	return nil
}

// Field returns the named field, or nil when the schema does not declare it.
func (s *SchemaDefinition) Field(name string) *FieldDefinition {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}
