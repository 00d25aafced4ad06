package catalog

import (
	"context"
	"log"
	"sort"
)

const categoriesPath = "categories"

type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// defaultCategories is the fixed seed set written on the first read of an
// empty store.
var defaultCategories = map[string]Category{
	"backgrounds":  {Name: "Backgrounds"},
	"buildings":    {Name: "Buildings"},
	"business":     {Name: "Business"},
	"digital_arts": {Name: "Digital Arts"},
	"nature":       {Name: "Nature"},
	"people":       {Name: "People"},
	"textures":     {Name: "Textures"},
}

// Categories returns all categories sorted by name, lazily seeding the
// default set when the store is empty. A failed read resolves to an empty
// list.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	children, err := s.docs.List(ctx, categoriesPath)
	if err != nil {
		log.Printf("[Catalog] Error listing categories: %v", err)
		return []Category{}, nil
	}

	if len(children) == 0 {
		return s.seedCategories(ctx)
	}

	categories := make([]Category, 0, len(children))
	for id, snap := range children {
		var c Category
		if err := snap.Decode(&c); err != nil {
			log.Printf("[Catalog] Skipping undecodable category %s: %v", id, err)
			continue
		}
		c.ID = id
		categories = append(categories, c)
	}
	sortCategories(categories)
	return categories, nil
}

// CategoryName resolves an id to its display name, "Unknown" if absent.
func (s *Service) CategoryName(ctx context.Context, id string) string {
	snap, err := s.docs.Get(ctx, categoriesPath+"/"+id)
	if err != nil || !snap.Exists() {
		return "Unknown"
	}
	var c Category
	if err := snap.Decode(&c); err != nil {
		return "Unknown"
	}
	return c.Name
}

func (s *Service) seedCategories(ctx context.Context) ([]Category, error) {
	log.Println("[Catalog] No categories found, seeding defaults")
	categories := make([]Category, 0, len(defaultCategories))
	for id, c := range defaultCategories {
		if err := s.docs.Set(ctx, categoriesPath+"/"+id, c); err != nil {
			log.Printf("[Catalog] Error seeding category %s: %v", id, err)
			return []Category{}, nil
		}
		c.ID = id
		categories = append(categories, c)
	}
	sortCategories(categories)
	return categories, nil
}

func sortCategories(categories []Category) {
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
}
