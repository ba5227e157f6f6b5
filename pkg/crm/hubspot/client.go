package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/crm"

	"golang.org/x/oauth2"
)

const ProviderName = "hubspot"

type Client struct {
	baseURL string
	fields  crm.FieldTable
	timeout time.Duration
	base    http.RoundTripper
	now     func() time.Time
}

var _ crm.Provider = (*Client)(nil)

func NewClient(baseURL string, fields crm.FieldTable, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.hubapi.com"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fields:  fields,
		timeout: timeout,
		base:    http.DefaultTransport,
		now:     time.Now,
	}
}

func (c *Client) Name() string { return ProviderName }

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups,omitempty"`
	Query        string        `json:"query,omitempty"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		Id         string                 `json:"id"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"results"`
}

// SearchContacts filters on exact email when the query looks like one and
// falls back to HubSpot's full text search otherwise.
func (c *Client) SearchContacts(ctx context.Context, credential *entity.CrmCredential, query string) ([]crm.Record, error) {
	const op = "hubspot.search_contacts"
	if credential == nil || credential.AccessToken == "" {
		return nil, apperr.Newf(apperr.KindConfig, op, "missing access token")
	}
	if credential.ExpiresAt != nil && credential.ExpiresAt.Before(c.now()) {
		return nil, apperr.Newf(apperr.KindProvider, op, "access token expired at %s", credential.ExpiresAt.Format(time.RFC3339))
	}

	body := searchRequest{Properties: c.fields.APINames(), Limit: 5}
	query = strings.TrimSpace(query)
	if strings.Contains(query, "@") {
		body.FilterGroups = []filterGroup{{Filters: []filter{{
			PropertyName: "email",
			Operator:     "EQ",
			Value:        strings.ToLower(query),
		}}}}
		body.Limit = 1
	} else {
		body.Query = query
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crm/v3/objects/contacts/search", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient(credential).Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindProvider, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindProvider, op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindProvider, op, "status %d: %s", resp.StatusCode, snippet(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperr.New(apperr.KindProvider, op, fmt.Errorf("decode response: %w", err))
	}

	records := make([]crm.Record, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		record := crm.RecordFromAPI(c.fields, result.Properties)
		record["id"] = result.Id
		records = append(records, record)
	}
	return records, nil
}

func (c *Client) httpClient(credential *entity.CrmCredential) *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential.AccessToken, TokenType: "Bearer"}),
			Base:   c.base,
		},
	}
}

func snippet(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
