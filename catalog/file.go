package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileTable is a single table entry in a catalog file.
type FileTable struct {
	Name          string   `yaml:"name"`
	Columns       []string `yaml:"columns"`
	OrderBy       []string `yaml:"orderBy"`
	AutoIncrement string   `yaml:"autoIncrement"`
}

// File is the on-disk catalog format. Tables are listed in dependency order.
type File struct {
	Tables []FileTable `yaml:"tables"`
}

// LoadFile reads a YAML catalog file and builds a [Catalog] from it.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog: path is required")
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("catalog: read file: %w", err)
	}

	return Parse(data)
}

// Parse builds a [Catalog] from YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse file: %w", err)
	}

	specs := make([]TableSpec, 0, len(f.Tables))
	for _, t := range f.Tables {
		specs = append(specs, NewTableSpec(t.Name, t.Columns, t.OrderBy, t.AutoIncrement))
	}

	return New(specs...)
}

// Marshal renders c in the catalog file format.
func Marshal(c *Catalog) ([]byte, error) {
	f := File{Tables: make([]FileTable, 0, c.Len())}

	for _, t := range c.Tables() {
		auto, _ := t.AutoIncrement()
		f.Tables = append(f.Tables, FileTable{
			Name:          t.Name(),
			Columns:       t.Columns(),
			OrderBy:       t.OrderBy(),
			AutoIncrement: auto,
		})
	}

	return yaml.Marshal(&f)
}
