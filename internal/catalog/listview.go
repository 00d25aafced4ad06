package catalog

import (
	"sort"
	"strings"
)

// List-view helpers for the admin products table: pure functions over an
// in-memory slice, never mutating their input.

type SortColumn string

const (
	SortByTitle    SortColumn = "title"
	SortByPrice    SortColumn = "price"
	SortByCategory SortColumn = "category"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// FilterByTitle returns the products whose title contains term,
// case-insensitively. An empty or blank term returns everything.
func FilterByTitle(products []Product, term string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]Product(nil), products...)
	}
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), term) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// SortProducts returns a sorted copy. The sort is stable: ties keep their
// original order. categoryName resolves a category id to its display name
// for SortByCategory.
func SortProducts(products []Product, column SortColumn, direction SortDirection, categoryName func(string) string) []Product {
	sorted := append([]Product(nil), products...)

	less := func(a, b Product) bool {
		switch column {
		case SortByPrice:
			return a.Price < b.Price
		case SortByCategory:
			return strings.ToLower(categoryName(a.CategoryID)) < strings.ToLower(categoryName(b.CategoryID))
		default:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if direction == Descending {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// Paginate returns the given 1-based page of a fixed page size. Pages past
// the end are empty.
func Paginate(products []Product, page, perPage int) []Product {
	if page < 1 || perPage < 1 {
		return []Product{}
	}
	start := (page - 1) * perPage
	if start >= len(products) {
		return []Product{}
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	return append([]Product(nil), products[start:end]...)
}

// PageCount returns how many pages of size perPage the list spans.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage < 1 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
