package codegen

import (
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// columnTypes is the fixed mapping from schema field types to storage
// column types carried in the generated model tags.
var columnTypes = map[schema.FieldType]string{
	schema.TypeString:   "varchar",
	schema.TypeInteger:  "bigint",
	schema.TypeFloat:    "double precision",
	schema.TypeBoolean:  "boolean",
	schema.TypeDatetime: "timestamptz",
	schema.TypeDate:     "date",
	schema.TypeTime:     "time",
	schema.TypeUUID:     "uuid",
	schema.TypeText:     "text",
	schema.TypeJSON:     "jsonb",
	schema.TypeBinary:   "bytea",
}

// columnType returns the storage type for a field. Unknown types fall back
// to varchar; the validator rejects them before generation reaches here.
func columnType(f *schema.FieldDefinition) string {
	ct, ok := columnTypes[f.Type]
	if !ok {
		ct = columnTypes[schema.TypeString]
	}
	if f.Type == schema.TypeString && f.MaxLength > 0 {
		return fmt.Sprintf("%s(%d)", ct, f.MaxLength)
	}
	return ct
}

// modelField is one rendered struct field, collected before writing so the
// whole block can be aligned.
type modelField struct {
	name string
	typ  string
	tags string
}

// GenerateModel renders the persistent entity declaration for one schema.
// Field order is preserved from the parsed document; relations follow the
// declared fields, then timestamps, then the soft-delete marker.
func (g *Generator) GenerateModel(s *schema.SchemaDefinition) (string, error) {
	if s.Name == "" {
		return "", fmt.Errorf("codegen: schema name cannot be empty")
	}

	g.reset()
	g.writeHeader("models", s.Name)

	var fields []modelField
	for i := range s.Fields {
		f := &s.Fields[i]
		g.collectFieldImports(f)
		fields = append(fields, modelField{
			name: goFieldName(f.Name),
			typ:  nullableGoType(f),
			tags: g.modelFieldTags(f),
		})
	}

	for _, rel := range s.Relations {
		fields = append(fields, g.relationFields(s, &rel)...)
	}

	if s.Timestamps {
		g.imports["time"] = true
		fields = append(fields,
			modelField{
				name: "CreatedAt",
				typ:  "time.Time",
				tags: "`db:\"created_at\" json:\"created_at\" gorm:\"column:created_at;type:timestamptz;autoCreateTime\"`",
			},
			modelField{
				name: "UpdatedAt",
				typ:  "time.Time",
				tags: "`db:\"updated_at\" json:\"updated_at\" gorm:\"column:updated_at;type:timestamptz;autoUpdateTime\"`",
			},
		)
	}
	if s.SoftDelete {
		g.imports["gorm.io/gorm"] = true
		fields = append(fields, modelField{
			name: "DeletedAt",
			typ:  "gorm.DeletedAt",
			tags: "`db:\"deleted_at\" json:\"deleted_at,omitempty\" gorm:\"column:deleted_at;index\"`",
		})
	}

	g.writeImports()

	g.writeLine("// %s is the persistent entity for table %q.", s.Name, s.Table)
	g.writeLine("type %s struct {", s.Name)
	g.indent++
	g.writeAligned(fields)
	g.indent--
	g.writeLine("}")
	g.writeLine("")

	g.writeLine("// TableName returns the database table name for %s.", s.Name)
	g.writeLine("func (%s *%s) TableName() string {", receiverName(s.Name), s.Name)
	g.indent++
	g.writeLine("return %q", s.Table)
	g.indent--
	g.writeLine("}")

	return g.buf.String(), nil
}

// writeAligned writes struct fields with names and types padded to the
// widest entry, the way gofmt would lay them out.
func (g *Generator) writeAligned(fields []modelField) {
	maxName, maxType := 0, 0
	for _, f := range fields {
		if len(f.name) > maxName {
			maxName = len(f.name)
		}
		if len(f.typ) > maxType {
			maxType = len(f.typ)
		}
	}
	for _, f := range fields {
		g.writeLine("%s%s %s%s %s",
			f.name, strings.Repeat(" ", maxName-len(f.name)),
			f.typ, strings.Repeat(" ", maxType-len(f.typ)),
			f.tags)
	}
}

// modelFieldTags builds the db/json/gorm struct tags for a declared field.
func (g *Generator) modelFieldTags(f *schema.FieldDefinition) string {
	jsonTag := f.Name
	if f.Nullable && !f.Primary {
		jsonTag += ",omitempty"
	}

	parts := []string{"column:" + f.Name, "type:" + columnType(f)}
	if f.Primary {
		parts = append(parts, "primaryKey")
		if f.Type == schema.TypeUUID {
			// Primary uuid columns get a server-side value generator.
			parts = append(parts, "default:gen_random_uuid()")
		}
	}
	if f.Unique {
		parts = append(parts, "unique")
	}
	if !f.Nullable && !f.Primary {
		parts = append(parts, "not null")
	}
	if f.Index {
		parts = append(parts, "index")
	}
	if f.Default != nil {
		parts = append(parts, fmt.Sprintf("default:%v", f.Default))
	}

	return fmt.Sprintf("`db:%q json:%q gorm:%q`", f.Name, jsonTag, strings.Join(parts, ";"))
}

// relationFields renders the struct fields for one relation, by cardinality.
func (g *Generator) relationFields(s *schema.SchemaDefinition, rel *schema.RelationDefinition) []modelField {
	target := rel.Target
	lower := strings.ToLower(target)

	switch rel.Kind {
	case schema.OneToMany:
		tags := fmt.Sprintf("`json:%q`", lower+"s,omitempty")
		if rel.ForeignKey != "" {
			tags = fmt.Sprintf("`json:%q gorm:%q`", lower+"s,omitempty", "foreignKey:"+goFieldName(rel.ForeignKey))
		}
		return []modelField{{
			name: goFieldName(lower) + "s",
			typ:  "[]" + target,
			tags: tags,
		}}

	case schema.ManyToOne:
		g.imports["github.com/google/uuid"] = true
		fkColumn := rel.ForeignKey
		if fkColumn == "" {
			fkColumn = lower + "_id"
		}
		fieldName := target
		if trimmed := strings.TrimSuffix(fkColumn, "_id"); trimmed != fkColumn {
			fieldName = goFieldName(trimmed)
		}
		return []modelField{
			{
				name: goFieldName(fkColumn),
				typ:  "*uuid.UUID",
				tags: fmt.Sprintf("`db:%q json:%q gorm:%q`", fkColumn, fkColumn+",omitempty", "column:"+fkColumn+";type:uuid"),
			},
			{
				name: fieldName,
				typ:  "*" + target,
				tags: fmt.Sprintf("`json:%q gorm:%q`", strings.ToLower(fieldName)+",omitempty", "foreignKey:"+goFieldName(fkColumn)),
			},
		}

	case schema.ManyToMany:
		// The association table is named by convention and never generated.
		return []modelField{{
			name: goFieldName(lower) + "s",
			typ:  "[]" + target,
			tags: fmt.Sprintf("`json:%q gorm:%q`", lower+"s,omitempty", "many2many:"+associationTable(s.Name, target)),
		}}
	}

	return nil
}

// GenerateModelIndex renders the aggregating index for the models package.
func (g *Generator) GenerateModelIndex(schemas []*schema.SchemaDefinition) (string, error) {
	g.reset()
	g.writeHeader("models", "")

	g.writeLine("// AllModels lists every generated entity, in schema order, for")
	g.writeLine("// registration with the persistence layer.")
	g.writeLine("func AllModels() []any {")
	g.indent++
	g.writeLine("return []any{")
	g.indent++
	for _, s := range schemas {
		g.writeLine("&%s{},", s.Name)
	}
	g.indent--
	g.writeLine("}")
	g.indent--
	g.writeLine("}")

	return g.buf.String(), nil
}
