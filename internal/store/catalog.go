package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"vending-storefront-backend/internal/model"
)

// LoadCatalog reads the JSON product file used to seed the catalog table.
// Entries without a positive slot id are rejected so a bad file never plants
// unvendable rows.
func LoadCatalog(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	for i, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("catalog entry %d (%q) has invalid slot id %d", i, p.Name, p.ID)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("catalog entry %d (slot %d) has no name", i, p.ID)
		}
	}
	return products, nil
}

// JoinItems renders a slot list as the comma-separated form stored on a
// vend session row.
func JoinItems(items []int) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.Itoa(item)
	}
	return strings.Join(parts, ",")
}

// SplitItems parses the stored comma-separated slot list back into ints.
// Malformed segments are skipped rather than failing the whole row.
func SplitItems(s string) []int {
	if s == "" {
		return nil
	}
	var items []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		items = append(items, n)
	}
	return items
}
