package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Module is a dataset mounted under /<Name> on both the JSON API group and
// the page group.
type Module interface {
	Name() string
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}

// mountModules registers every module. Nil modules, empty names and names
// mounted twice are rejected before any route is added.
func mountModules(mods []Module, api, pages *gin.RouterGroup) error {
	seen := make(map[string]int, len(mods))
	for i, m := range mods {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		name := m.Name()
		if name == "" {
			return fmt.Errorf("module at index %d has no name", i)
		}
		if j, dup := seen[name]; dup {
			return fmt.Errorf("module %q at index %d is already mounted at index %d", name, i, j)
		}
		seen[name] = i
	}

	for _, m := range mods {
		m.RegisterRoutes(api, pages)
	}
	return nil
}
