package crm

import (
	"fmt"
	"sort"
	"strings"
)

// Snapshot is a CRM record normalized into typed fields. Raw keeps every
// field that survived key normalization.
type Snapshot struct {
	Provider   string
	Name       string
	Email      string
	Company    string
	Title      string
	Phone      string
	Department string
	Raw        map[string]string
}

var (
	nameKeys       = []string{"display_name", "name", "full_name", "fullname"}
	firstNameKeys  = []string{"first_name", "firstname"}
	lastNameKeys   = []string{"last_name", "lastname"}
	emailKeys      = []string{"email", "email_address"}
	companyKeys    = []string{"company", "company_name", "account_name", "account"}
	titleKeys      = []string{"title", "jobtitle", "job_title"}
	phoneKeys      = []string{"phone", "phone_number", "mobile_phone", "mobilephone"}
	departmentKeys = []string{"department"}
)

// NormalizeRecord reads a flat key/value record whose keys may arrive
// plain ("email"), symbol style (":email") or quoted ("\"email\"").
// It returns nil when none of the known fields carry a value.
func NormalizeRecord(provider string, record map[string]interface{}) *Snapshot {
	if len(record) == 0 {
		return nil
	}

	// Duplicates resolve by keyPrecedence, then by the raw key, so the
	// result never depends on map iteration order.
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := keyPrecedence(keys[i]), keyPrecedence(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	raw := make(map[string]string, len(record))
	for _, k := range keys {
		key := NormalizeKey(k)
		value := stringify(record[k])
		if key == "" || value == "" {
			continue
		}
		if _, exists := raw[key]; exists {
			continue
		}
		raw[key] = value
	}

	s := &Snapshot{
		Provider:   provider,
		Name:       first(raw, nameKeys),
		Email:      strings.ToLower(first(raw, emailKeys)),
		Company:    first(raw, companyKeys),
		Title:      first(raw, titleKeys),
		Phone:      first(raw, phoneKeys),
		Department: first(raw, departmentKeys),
		Raw:        raw,
	}
	if s.Name == "" {
		s.Name = strings.TrimSpace(first(raw, firstNameKeys) + " " + first(raw, lastNameKeys))
	}
	if s.IsEmpty() {
		return nil
	}
	return s
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || (s.Name == "" && s.Email == "" && s.Company == "" &&
		s.Title == "" && s.Phone == "" && s.Department == "")
}

// ToMap renders the snapshot back into the plain key form used in
// message metadata.
func (s *Snapshot) ToMap() map[string]interface{} {
	if s == nil {
		return nil
	}
	out := make(map[string]interface{}, len(s.Raw)+6)
	for k, v := range s.Raw {
		out[k] = v
	}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("display_name", s.Name)
	set("email", s.Email)
	set("company", s.Company)
	set("title", s.Title)
	set("phone", s.Phone)
	set("department", s.Department)
	if s.Provider != "" {
		out["provider"] = s.Provider
	}
	return out
}

// Keys returns the normalized raw keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Raw))
	for k := range s.Raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyPrecedence ranks spellings of the same field: exact plain key,
// plain key in another case, symbol style, then quoted.
func keyPrecedence(k string) int {
	trimmed := strings.TrimSpace(k)
	switch {
	case strings.HasPrefix(trimmed, ":"):
		return 2
	case strings.ContainsAny(trimmed, `"'`):
		return 3
	case trimmed == strings.ToLower(trimmed):
		return 0
	default:
		return 1
	}
}

func NormalizeKey(k string) string {
	k = strings.TrimSpace(k)
	k = strings.TrimPrefix(k, ":")
	k = strings.Trim(k, `"'`)
	k = strings.TrimSpace(k)
	return strings.ToLower(k)
}

func first(raw map[string]string, keys []string) string {
	for _, k := range keys {
		if v := raw[k]; v != "" {
			return v
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
