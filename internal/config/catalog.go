package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/humzaiqbal/trash-tracker/internal/models"
)

// CatalogFile models a route catalog file:
//
//	routes:
//	  - id: 1
//	    name: Main Street
type CatalogFile struct {
	Routes []CatalogRoute `yaml:"routes"`
}

// CatalogRoute is one catalog entry.
type CatalogRoute struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// LoadCatalog reads the route catalog at path. An empty path returns the
// built-in catalog.
func LoadCatalog(path string) ([]models.Route, error) {
	if path == "" {
		return models.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML. Ids must be positive
// and unique, and every route needs a name.
func ParseCatalog(data []byte) ([]models.Route, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse route catalog: %w", err)
	}
	if len(file.Routes) == 0 {
		return nil, errors.New("route catalog has no routes")
	}

	seen := make(map[int]struct{}, len(file.Routes))
	routes := make([]models.Route, 0, len(file.Routes))
	for i, r := range file.Routes {
		name := strings.TrimSpace(r.Name)
		switch {
		case r.ID < 1:
			return nil, fmt.Errorf("route catalog entry %d: id must be positive, got %d", i, r.ID)
		case name == "":
			return nil, fmt.Errorf("route catalog entry %d: name is required", i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("route catalog entry %d: duplicate id %d", i, r.ID)
		}
		seen[r.ID] = struct{}{}
		routes = append(routes, models.Route{ID: r.ID, Name: name, People: []models.Person{}})
	}
	return routes, nil
}
