package codegen

import (
	"fmt"
	"strings"

	"github.com/schemaforge/schemaforge/internal/schema"
)

// GenerateProject renders every output unit for a validated schema set,
// keyed by path relative to the output root: one model and one API unit per
// schema, the two aggregating indexes, and the generated project's go.mod.
// Schemas must already have passed validation.
func GenerateProject(schemas []*schema.SchemaDefinition, moduleName string) (map[string]string, error) {
	g := NewGenerator()
	files := make(map[string]string)

	for _, s := range schemas {
		model, err := g.GenerateModel(s)
		if err != nil {
			return nil, fmt.Errorf("failed to generate model for %s: %w", s.Name, err)
		}
		files["models/"+strings.ToLower(s.Name)+".go"] = model

		router, err := g.GenerateRouter(s, moduleName)
		if err != nil {
			return nil, fmt.Errorf("failed to generate router for %s: %w", s.Name, err)
		}
		files["api/"+strings.ToLower(s.Name)+".go"] = router
	}

	modelIndex, err := g.GenerateModelIndex(schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to generate model index: %w", err)
	}
	files["models/models.go"] = modelIndex

	routerIndex, err := g.GenerateRouterIndex(schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to generate router index: %w", err)
	}
	files["api/router.go"] = routerIndex

	files["go.mod"] = g.GenerateProjectGoMod(moduleName)

	return files, nil
}
