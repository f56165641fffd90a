package scoring

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Catalog is a versioned, ordered set of test items.
type Catalog struct {
	Version string `json:"version" yaml:"version"`
	Items   []Item `json:"items" yaml:"items"`
}

// LoadCatalog decodes a catalog from YAML or JSON. Items come back sorted by SortOrder.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("decode catalog: empty document")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	sort.SliceStable(c.Items, func(i, j int) bool { return c.Items[i].SortOrder < c.Items[j].SortOrder })
	return &c, nil
}

// LoadCatalogFile reads a catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the national-standard items shipped with the service.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Find returns the item with the code.
func (c *Catalog) Find(code string) (Item, bool) {
	for _, item := range c.Items {
		if item.Code == code {
			return item, true
		}
	}
	return Item{}, false
}

// TotalWeight sums item weights applicable to the gender.
func (c *Catalog) TotalWeight(g Gender) int {
	total := 0
	for _, item := range ApplicableItems(c.Items, g) {
		total += item.Weight
	}
	return total
}
