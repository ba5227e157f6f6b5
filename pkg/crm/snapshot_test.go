package crm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecord_KeyForms(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"plain": {
			"display_name": "Jane Roe", "email": "Jane@Example.com", "company": "Acme",
			"jobtitle": "CTO", "phone": "+1 555 0100",
		},
		"symbol": {
			":display_name": "Jane Roe", ":email": "jane@example.com", ":company": "Acme",
			":title": "CTO", ":phone": "+1 555 0100",
		},
		"quoted": {
			`"name"`: "Jane Roe", `"email"`: "jane@example.com", `"company"`: "Acme",
			`"job_title"`: "CTO", `"phone_number"`: "+1 555 0100",
		},
	}
	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			s := NormalizeRecord("hubspot", record)
			require.NotNil(t, s)
			assert.Equal(t, "Jane Roe", s.Name)
			assert.Equal(t, "jane@example.com", s.Email)
			assert.Equal(t, "Acme", s.Company)
			assert.Equal(t, "CTO", s.Title)
			assert.Equal(t, "+1 555 0100", s.Phone)
			assert.Empty(t, s.Department)
		})
	}
}

func TestNormalizeRecord_JoinsFirstAndLastName(t *testing.T) {
	s := NormalizeRecord("salesforce", map[string]interface{}{
		"first_name": "Ada", "last_name": "Lovelace", "department": "R&D",
	})
	require.NotNil(t, s)
	assert.Equal(t, "Ada Lovelace", s.Name)
	assert.Equal(t, "R&D", s.Department)

	s = NormalizeRecord("salesforce", map[string]interface{}{"lastname": "Lovelace"})
	require.NotNil(t, s)
	assert.Equal(t, "Lovelace", s.Name)
}

func TestNormalizeRecord_DuplicateSpellingsAreStable(t *testing.T) {
	cases := []struct {
		name   string
		record map[string]interface{}
		want   string
	}{
		{"plain over symbol", map[string]interface{}{":email": "old@example.com", "email": "new@example.com"}, "new@example.com"},
		{"cased plain over symbol", map[string]interface{}{"Email": "a@x.com", ":email": "b@x.com"}, "a@x.com"},
		{"symbol over quoted", map[string]interface{}{`"email"`: "q@x.com", ":email": "s@x.com"}, "s@x.com"},
		{"exact over cased", map[string]interface{}{"EMAIL": "u@x.com", "Email": "m@x.com", "email": "l@x.com"}, "l@x.com"},
		{"cased variants by raw key", map[string]interface{}{"Email": "m@x.com", "EMAIL": "u@x.com"}, "u@x.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				s := NormalizeRecord("mention", tc.record)
				require.NotNil(t, s)
				require.Equal(t, tc.want, s.Email)
			}
		})
	}
}

func TestKeyPrecedence(t *testing.T) {
	assert.Equal(t, 0, keyPrecedence("email"))
	assert.Equal(t, 1, keyPrecedence("Email"))
	assert.Equal(t, 2, keyPrecedence(":email"))
	assert.Equal(t, 3, keyPrecedence(`"email"`))
}

func TestNormalizeRecord_Empty(t *testing.T) {
	assert.Nil(t, NormalizeRecord("x", nil))
	assert.Nil(t, NormalizeRecord("x", map[string]interface{}{"id": "42", "email": "  "}))
	assert.Nil(t, NormalizeRecord("x", map[string]interface{}{"lifecycle_stage": "lead"}))
}

func TestNormalizeRecord_NonStringValues(t *testing.T) {
	s := NormalizeRecord("x", map[string]interface{}{
		"phone":   float64(5550100),
		"company": map[string]interface{}{"Name": "nested is ignored"},
		"title":   true,
	})
	require.NotNil(t, s)
	assert.Equal(t, "5550100", s.Phone)
	assert.Empty(t, s.Company)
	assert.Equal(t, "true", s.Title)
}

func TestSnapshot_ToMap(t *testing.T) {
	s := NormalizeRecord("hubspot", map[string]interface{}{":firstname": "Jane", "lastname": "Roe", "email": "jane@example.com"})
	m := s.ToMap()

	assert.Equal(t, "Jane Roe", m["display_name"])
	assert.Equal(t, "jane@example.com", m["email"])
	assert.Equal(t, "hubspot", m["provider"])
	assert.Equal(t, "Jane", m["firstname"])
	assert.Equal(t, []string{"email", "firstname", "lastname"}, s.Keys())

	var nilSnapshot *Snapshot
	assert.Nil(t, nilSnapshot.ToMap())
	assert.True(t, nilSnapshot.IsEmpty())
}
