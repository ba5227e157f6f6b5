package crm

import (
	"context"

	"contact-assistant-be/internal/entity"
)

// Record is one contact as returned by a provider, keyed by internal
// field names from the provider's field table.
type Record map[string]interface{}

// Provider searches one external CRM on behalf of a user.
type Provider interface {
	Name() string
	// SearchContacts returns matching records, most relevant first. An
	// empty slice with a nil error means no match.
	SearchContacts(ctx context.Context, credential *entity.CrmCredential, query string) ([]Record, error)
}

// RecordFromAPI flattens a provider payload through the field table.
// Dotted API names walk nested objects.
func RecordFromAPI(table FieldTable, payload map[string]interface{}) Record {
	record := make(Record, len(table))
	for _, f := range table {
		if v, ok := lookupPath(payload, f.APIName); ok && v != nil {
			record[f.Name] = v
		}
	}
	return record
}

func lookupPath(payload map[string]interface{}, path string) (interface{}, bool) {
	current := interface{}(payload)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[path[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return current, true
}
