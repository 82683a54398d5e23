package codegen

import (
	"strings"
	"testing"

	"github.com/schemaforge/schemaforge/internal/schema"
)

const testModule = "example.com/app"

func generateWidgetRouter(t *testing.T, s *schema.SchemaDefinition) string {
	t.Helper()
	code, err := NewGenerator().GenerateRouter(s, testModule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return code
}

func TestGenerateRouter_TransferTypes(t *testing.T) {
	s := widgetSchema()
	s.Fields = append(s.Fields, schema.FieldDefinition{Name: "note", Type: schema.TypeText, Nullable: true})
	code := generateWidgetRouter(t, s)

	t.Run("create payload excludes the primary key", func(t *testing.T) {
		block := extractBlock(t, code, "type WidgetCreate struct {")
		if strings.Contains(block, "ID") {
			t.Errorf("create payload must not carry the primary key:\n%s", block)
		}
		if !strings.Contains(block, "Title string") {
			t.Errorf("required field should be a plain value:\n%s", block)
		}
		if !strings.Contains(block, "Note  *string") {
			t.Errorf("optional field should be a pointer:\n%s", block)
		}
		if !strings.Contains(block, "`json:\"note,omitempty\"`") {
			t.Errorf("optional field should be omitempty:\n%s", block)
		}
	})

	t.Run("update payload makes every field optional", func(t *testing.T) {
		block := extractBlock(t, code, "type WidgetUpdate struct {")
		for _, want := range []string{"ID    *uuid.UUID", "Title *string", "Note  *string"} {
			if !strings.Contains(block, want) {
				t.Errorf("update payload missing %q:\n%s", want, block)
			}
		}
	})

	t.Run("response carries timestamps", func(t *testing.T) {
		block := extractBlock(t, code, "type WidgetResponse struct {")
		if !strings.Contains(block, "CreatedAt time.Time") || !strings.Contains(block, "UpdatedAt time.Time") {
			t.Errorf("response should include timestamps:\n%s", block)
		}
	})
}

func TestGenerateRouter_CreateHandler(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		"func CreateWidgetHandler(db *gorm.DB) http.HandlerFunc {",
		`out, err := hooks.Execute(r.Context(), hooks.BeforeCreate, "Widget", data)`,
		"data = out.Context",
		"db.WithContext(r.Context()).Create(&item)",
		`hooks.Execute(r.Context(), hooks.AfterCreate, "Widget", hooks.Context{"instance": &item})`,
		"response.JSON(w, http.StatusCreated, toWidgetResponse(&item))",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("create handler missing %q", want)
		}
	}

	// The persisted model is built from the hook output, not the raw payload,
	// so before_create mutations reach the database.
	mutate := strings.Index(code, "data = out.Context")
	apply := strings.Index(code, `if v, ok := data["title"].(string); ok {`)
	if mutate < 0 || apply < 0 || mutate > apply {
		t.Error("model must be populated from the hook-mutated data")
	}
}

func TestGenerateRouter_ListHandler(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		"page, err := request.ParsePage(r)",
		"Offset(page.Skip).Limit(page.Limit).Find(&items)",
		"response.Error(w, http.StatusBadRequest, err.Error())",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("list handler missing %q", want)
		}
	}
}

func TestGenerateRouter_GetHandler(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		`id, err := request.UUIDParam(r, "id")`,
		`First(&item, "id = ?", id)`,
		`response.NotFound(w, "Widget")`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("get handler missing %q", want)
		}
	}
}

func TestGenerateRouter_IntegerPrimaryKey(t *testing.T) {
	s := widgetSchema()
	s.Fields[0] = schema.FieldDefinition{Name: "id", Type: schema.TypeInteger, Primary: true}

	code := generateWidgetRouter(t, s)
	if !strings.Contains(code, `id, err := request.IntParam(r, "id")`) {
		t.Error("integer primary key should parse with IntParam")
	}
	if strings.Contains(code, "UUIDParam") {
		t.Error("integer primary key should not reference UUIDParam")
	}
}

func TestGenerateRouter_UpdateHandler(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		"prior := toWidgetResponse(&item)",
		`out, err := hooks.Execute(r.Context(), hooks.BeforeUpdate, "Widget", data)`,
		"db.WithContext(r.Context()).Save(&item)",
		`hooks.Execute(r.Context(), hooks.AfterUpdate, "Widget", hooks.Context{"instance": &item, "prior": prior})`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("update handler missing %q", want)
		}
	}

	// The prior snapshot is taken before the payload touches the model.
	prior := strings.Index(code, "prior := toWidgetResponse(&item)")
	before := strings.Index(code, "hooks.BeforeUpdate")
	if prior < 0 || before < 0 || prior > before {
		t.Error("prior snapshot must precede the before_update hook")
	}
}

func TestGenerateRouter_DeleteHandler(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		`hooks.Execute(r.Context(), hooks.BeforeDelete, "Widget", hooks.Context{"instance": &item})`,
		"if out.Aborted {",
		"final := toWidgetResponse(&item)",
		"db.WithContext(r.Context()).Delete(&item)",
		`hooks.Execute(r.Context(), hooks.AfterDelete, "Widget", hooks.Context{"instance": final})`,
		"w.WriteHeader(http.StatusNoContent)",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("delete handler missing %q", want)
		}
	}

	// Abort path still saves the instance before returning 204.
	abort := strings.Index(code, "if out.Aborted {")
	block := extractBlock(t, code[abort:], "if out.Aborted {")
	if !strings.Contains(block, "Save(&item)") {
		t.Errorf("abort path must persist hook mutations:\n%s", block)
	}
	if strings.Contains(block, "Delete(&item)") {
		t.Errorf("abort path must not delete:\n%s", block)
	}
}

func TestGenerateRouter_Routes(t *testing.T) {
	code := generateWidgetRouter(t, widgetSchema())

	for _, want := range []string{
		`r.Post("/widgets", CreateWidgetHandler(db))`,
		`r.Get("/widgets", ListWidgetHandler(db))`,
		`r.Get("/widget/{id}", GetWidgetHandler(db))`,
		`r.Put("/widget/{id}", UpdateWidgetHandler(db))`,
		`r.Delete("/widget/{id}", DeleteWidgetHandler(db))`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("route registration missing %q", want)
		}
	}
}

func TestGenerateRouter_Idempotent(t *testing.T) {
	first := generateWidgetRouter(t, widgetSchema())
	second := generateWidgetRouter(t, widgetSchema())
	if first != second {
		t.Error("repeated generation from identical input must be byte-identical")
	}
}

func TestGenerateRouterIndex(t *testing.T) {
	schemas := []*schema.SchemaDefinition{
		widgetSchema(),
		{Name: "User", Table: "users", Fields: []schema.FieldDefinition{{Name: "id", Type: schema.TypeUUID, Primary: true}}},
	}

	code, err := NewGenerator().GenerateRouterIndex(schemas)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"func RegisterRoutes(r chi.Router, db *gorm.DB) {",
		"RegisterWidgetRoutes(r, db)",
		"RegisterUserRoutes(r, db)",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("router index missing %q:\n%s", want, code)
		}
	}
}

func TestGenerateProjectGoMod(t *testing.T) {
	got := NewGenerator().GenerateProjectGoMod(testModule)

	for _, want := range []string{
		"module example.com/app",
		"github.com/schemaforge/schemaforge",
		"gorm.io/gorm",
		"github.com/go-chi/chi/v5",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("go.mod missing %q:\n%s", want, got)
		}
	}
}

// extractBlock returns the brace-delimited block starting at marker.
func extractBlock(t *testing.T, code, marker string) string {
	t.Helper()
	start := strings.Index(code, marker)
	if start < 0 {
		t.Fatalf("marker %q not found in:\n%s", marker, code)
	}
	depth := 0
	for i := start; i < len(code); i++ {
		switch code[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return code[start : i+1]
			}
		}
	}
	t.Fatalf("unterminated block at %q", marker)
	return ""
}
