package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports the first structural violation found in a schema
// set, with enough context to point the author at the offending entity.
type ValidationError struct {
	Schema   string
	Field    string
	Relation string // relation target, when the violation is relation-scoped
	Message  string
}

func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Schema != "" {
		b.WriteString("schema ")
		b.WriteString(e.Schema)
		if e.Field != "" {
			b.WriteString(", field ")
			b.WriteString(e.Field)
		}
		if e.Relation != "" {
			b.WriteString(", relation ")
			b.WriteString(e.Relation)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)
	return b.String()
}

// Validator checks a complete schema set for structural violations.
// Validation is fail-fast: the first violation aborts the run.
type Validator struct {
	schemas map[string]*SchemaDefinition
}

// NewValidator creates a schema validator.
func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*SchemaDefinition)}
}

// ValidateAll validates every schema plus cross-schema relation targets.
// It requires the complete schema set: a relation target is only resolvable
// once every schema is known.
func (v *Validator) ValidateAll(schemas []*SchemaDefinition) error {
	v.schemas = make(map[string]*SchemaDefinition, len(schemas))
	for _, s := range schemas {
		if _, exists := v.schemas[s.Name]; exists {
			return &ValidationError{
				Schema:  s.Name,
				Message: "duplicate schema name",
			}
		}
		v.schemas[s.Name] = s
	}

	for _, s := range schemas {
		if err := v.validateSchema(s); err != nil {
			return err
		}
	}

	// Relation targets are checked last, against the fully indexed set.
	for _, s := range schemas {
		for _, rel := range s.Relations {
			if rel.Target == "" {
				continue // already rejected by validateRelations
			}
			if _, ok := v.schemas[rel.Target]; !ok {
				return &ValidationError{
					Schema:   s.Name,
					Relation: rel.Target,
					Message:  fmt.Sprintf("relation target %q does not exist", rel.Target),
				}
			}
		}
	}

	return nil
}

// validateSchema validates one schema's fields, primary key, and relations.
func (v *Validator) validateSchema(s *SchemaDefinition) error {
	for i := range s.Fields {
		if err := v.validateFieldType(s, &s.Fields[i]); err != nil {
			return err
		}
		if err := v.validateRequiredNullable(s, &s.Fields[i]); err != nil {
			return err
		}
	}

	if err := v.validatePrimaryKey(s); err != nil {
		return err
	}

	return v.validateRelations(s)
}

// validateFieldType checks the field type against the fixed supported set.
func (v *Validator) validateFieldType(s *SchemaDefinition, f *FieldDefinition) error {
	if ValidFieldTypes[f.Type] {
		return nil
	}
	return &ValidationError{
		Schema:  s.Name,
		Field:   f.Name,
		Message: fmt.Sprintf("invalid field type %q, valid types: %s", f.Type, validTypeList()),
	}
}

// validateRequiredNullable rejects fields that are both required and
// nullable; primary fields are exempt.
func (v *Validator) validateRequiredNullable(s *SchemaDefinition, f *FieldDefinition) error {
	if f.Required && f.Nullable && !f.Primary {
		return &ValidationError{
			Schema:  s.Name,
			Field:   f.Name,
			Message: "field cannot be both required and nullable",
		}
	}
	return nil
}

// validatePrimaryKey confirms exactly one field is marked primary. The
// multiple-primary error names every offending field.
func (v *Validator) validatePrimaryKey(s *SchemaDefinition) error {
	var primaries []string
	for _, f := range s.Fields {
		if f.Primary {
			primaries = append(primaries, f.Name)
		}
	}

	switch len(primaries) {
	case 0:
		return &ValidationError{
			Schema:  s.Name,
			Message: "schema must have a primary key",
		}
	case 1:
		return nil
	default:
		return &ValidationError{
			Schema:  s.Name,
			Message: fmt.Sprintf("schema has multiple primary keys: %s", strings.Join(primaries, ", ")),
		}
	}
}

// validateRelations checks relation kinds and target presence. Target
// existence is deferred to the cross-schema pass in ValidateAll.
func (v *Validator) validateRelations(s *SchemaDefinition) error {
	for _, rel := range s.Relations {
		if !ValidRelationKinds[rel.Kind] {
			return &ValidationError{
				Schema:   s.Name,
				Relation: rel.Target,
				Message:  fmt.Sprintf("invalid relation type %q, valid types: %s", rel.Kind, validKindList()),
			}
		}
		if rel.Target == "" {
			return &ValidationError{
				Schema:  s.Name,
				Message: "relation missing required key \"target\"",
			}
		}
	}
	return nil
}

func validTypeList() string {
	names := make([]string, 0, len(ValidFieldTypes))
	for t := range ValidFieldTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func validKindList() string {
	names := make([]string, 0, len(ValidRelationKinds))
	for k := range ValidRelationKinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
