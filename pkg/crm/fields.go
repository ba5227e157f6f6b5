package crm

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var defaultFieldsYAML []byte

// Field maps an internal field name to a provider's label and API name.
type Field struct {
	Name    string `yaml:"name" json:"name"`
	Label   string `yaml:"label" json:"label"`
	APIName string `yaml:"api_name" json:"api_name"`
}

type FieldTable []Field

// APINames returns the provider API names in table order.
func (t FieldTable) APINames() []string {
	names := make([]string, len(t))
	for i, f := range t {
		names[i] = f.APIName
	}
	return names
}

func (t FieldTable) Label(name string) string {
	for _, f := range t {
		if f.Name == name {
			return f.Label
		}
	}
	return ""
}

// FieldTables is keyed by provider name.
type FieldTables map[string]FieldTable

func (t FieldTables) For(provider string) (FieldTable, bool) {
	table, ok := t[strings.ToLower(provider)]
	return table, ok
}

var (
	cachedFieldTables FieldTables
	fieldTablesOnce   sync.Once
	fieldTablesErr    error
)

// LoadFieldTables parses the embedded field tables once and caches them.
func LoadFieldTables() (FieldTables, error) {
	fieldTablesOnce.Do(func() {
		cachedFieldTables, fieldTablesErr = ParseFieldTables(defaultFieldsYAML)
	})
	return cachedFieldTables, fieldTablesErr
}

func ParseFieldTables(data []byte) (FieldTables, error) {
	var raw map[string][]Field
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing crm field tables: %w", err)
	}
	tables := make(FieldTables, len(raw))
	for provider, fields := range raw {
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			if f.Name == "" || f.APIName == "" {
				return nil, fmt.Errorf("provider %s: field needs name and api_name", provider)
			}
			if seen[f.Name] {
				return nil, fmt.Errorf("provider %s: duplicate field %s", provider, f.Name)
			}
			seen[f.Name] = true
		}
		tables[strings.ToLower(provider)] = fields
	}
	return tables, nil
}
