package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var documentExtensions = []string{".json", ".yaml", ".yml"}

// Load reads products, pricing and orders documents from dir. Each document
// may be JSON or YAML; the first of products.json, products.yaml, products.yml
// found wins.
func Load(dir string) (*Catalog, error) {
	var products []Product
	if err := readDocument(dir, "products", &products); err != nil {
		return nil, err
	}

	var pricing Pricing
	if err := readDocument(dir, "pricing", &pricing); err != nil {
		return nil, err
	}

	var orders map[string]Order
	if err := readDocument(dir, "orders", &orders); err != nil {
		return nil, err
	}

	return New(products, pricing, orders)
}

func readDocument(dir, name string, out any) error {
	for _, ext := range documentExtensions {
		path := filepath.Join(dir, name+ext)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if ext == ".json" {
			err = json.Unmarshal(raw, out)
		} else {
			err = yaml.Unmarshal(raw, out)
		}
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrInvalidCatalog, path, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s document not found in %s", ErrInvalidCatalog, name, dir)
}
