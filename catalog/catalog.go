package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Row is an ordered tuple of column values, positioned
// like the columns of the [TableSpec] it was read for.
type Row = []any

// TableSpec describes one table: the columns to copy, the columns that
// impose a strict total order on its rows, and the optional
// auto-generated key column.
type TableSpec struct {
	name          string
	columns       []string
	orderBy       []string
	autoIncrement string
}

// NewTableSpec builds a [TableSpec]. Use an empty autoIncrement for tables
// without a generated key.
func NewTableSpec(name string, columns, orderBy []string, autoIncrement string) TableSpec {
	return TableSpec{
		name:          name,
		columns:       slices.Clone(columns),
		orderBy:       slices.Clone(orderBy),
		autoIncrement: autoIncrement,
	}
}

func (t TableSpec) Name() string { return t.name }

// Columns returns a copy of the projected columns, in projection order.
func (t TableSpec) Columns() []string { return slices.Clone(t.columns) }

// OrderBy returns a copy of the sort key columns.
func (t TableSpec) OrderBy() []string { return slices.Clone(t.orderBy) }

// AutoIncrement returns the generated key column and whether the table has one.
func (t TableSpec) AutoIncrement() (string, bool) {
	return t.autoIncrement, len(t.autoIncrement) > 0
}

func (t TableSpec) validate() error {
	if err := validateIdentifier(t.name, "table name"); err != nil {
		return err
	}

	if len(t.columns) == 0 {
		return fmt.Errorf("table %s: no columns declared", t.name)
	}

	seen := make(map[string]struct{}, len(t.columns))

	for _, c := range t.columns {
		if err := validateIdentifier(c, "column name"); err != nil {
			return fmt.Errorf("table %s: %w", t.name, err)
		}

		if _, dup := seen[c]; dup {
			return fmt.Errorf("table %s: duplicate column %q", t.name, c)
		}

		seen[c] = struct{}{}
	}

	if len(t.orderBy) == 0 {
		return fmt.Errorf("table %s: sort key is required", t.name)
	}

	for _, c := range t.orderBy {
		if _, ok := seen[c]; !ok {
			return fmt.Errorf("table %s: sort key column %q is not a declared column", t.name, c)
		}
	}

	if col, ok := t.AutoIncrement(); ok {
		if _, declared := seen[col]; !declared {
			return fmt.Errorf("table %s: auto increment column %q is not a declared column", t.name, col)
		}
	}

	return nil
}

// validateIdentifier ensures an identifier contains only safe characters,
// since identifiers are interpolated into SQL text.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}

	return nil
}

// Catalog is an immutable, ordered set of tables.
//
// The order is the dependency order: a table appears after every table
// its rows reference.
type Catalog struct {
	tables []TableSpec
	index  map[string]int
}

// New validates the given specs and returns a catalog preserving their order.
func New(specs ...TableSpec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, errors.New("catalog: at least one table is required")
	}

	c := &Catalog{
		tables: make([]TableSpec, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}

	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}

		if _, dup := c.index[s.name]; dup {
			return nil, fmt.Errorf("catalog: duplicate table %q", s.name)
		}

		c.index[s.name] = len(c.tables)
		c.tables = append(c.tables, s)
	}

	return c, nil
}

// MustNew is like [New] but panics on an invalid catalog.
func MustNew(specs ...TableSpec) *Catalog {
	c, err := New(specs...)
	if err != nil {
		panic(err)
	}

	return c
}

// Lookup returns the spec registered under name.
func (c *Catalog) Lookup(name string) (TableSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return TableSpec{}, false
	}

	return c.tables[i], true
}

// Tables returns the specs in dependency order.
func (c *Catalog) Tables() []TableSpec { return slices.Clone(c.tables) }

// Reverse returns the specs in reverse dependency order,
// children before parents.
func (c *Catalog) Reverse() []TableSpec {
	r := slices.Clone(c.tables)
	slices.Reverse(r)

	return r
}

// Names returns the table names in dependency order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.name
	}

	return names
}

func (c *Catalog) Len() int { return len(c.tables) }
