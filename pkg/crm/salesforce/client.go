package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/apperr"
	"contact-assistant-be/pkg/crm"

	"golang.org/x/oauth2"
)

const ProviderName = "salesforce"

type Client struct {
	apiVersion string
	fields     crm.FieldTable
	timeout    time.Duration
	base       http.RoundTripper
	now        func() time.Time
}

var _ crm.Provider = (*Client)(nil)

func NewClient(apiVersion string, fields crm.FieldTable, timeout time.Duration) *Client {
	if apiVersion == "" {
		apiVersion = "v59.0"
	}
	return &Client{
		apiVersion: apiVersion,
		fields:     fields,
		timeout:    timeout,
		base:       http.DefaultTransport,
		now:        time.Now,
	}
}

func (c *Client) Name() string { return ProviderName }

type queryResponse struct {
	TotalSize int                      `json:"totalSize"`
	Done      bool                     `json:"done"`
	Records   []map[string]interface{} `json:"records"`
}

// SearchContacts runs a SOQL query against the credential's instance.
func (c *Client) SearchContacts(ctx context.Context, credential *entity.CrmCredential, query string) ([]crm.Record, error) {
	const op = "salesforce.search_contacts"
	if credential == nil || credential.AccessToken == "" {
		return nil, apperr.Newf(apperr.KindConfig, op, "missing access token")
	}
	if credential.InstanceURL == "" {
		return nil, apperr.Newf(apperr.KindConfig, op, "missing instance url")
	}
	if credential.ExpiresAt != nil && credential.ExpiresAt.Before(c.now()) {
		return nil, apperr.Newf(apperr.KindProvider, op, "access token expired at %s", credential.ExpiresAt.Format(time.RFC3339))
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s",
		strings.TrimRight(credential.InstanceURL, "/"), c.apiVersion, url.QueryEscape(BuildQuery(c.fields, query)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindInternal, op, err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential.AccessToken, TokenType: "Bearer"}),
			Base:   c.base,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindProvider, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindProvider, op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindProvider, op, "status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed queryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperr.New(apperr.KindProvider, op, fmt.Errorf("decode response: %w", err))
	}

	records := make([]crm.Record, 0, len(parsed.Records))
	for _, r := range parsed.Records {
		record := crm.RecordFromAPI(c.fields, r)
		if id, ok := r["Id"]; ok {
			record["id"] = id
		}
		records = append(records, record)
	}
	return records, nil
}

// BuildQuery renders the SOQL statement. Emails match exactly, anything
// else matches on Name.
func BuildQuery(fields crm.FieldTable, query string) string {
	query = strings.TrimSpace(query)
	columns := append([]string{"Id"}, fields.APINames()...)

	var where string
	if strings.Contains(query, "@") {
		where = fmt.Sprintf("Email = '%s'", EscapeSOQL(strings.ToLower(query)))
	} else {
		where = fmt.Sprintf("Name LIKE '%%%s%%'", EscapeSOQL(query))
	}
	return fmt.Sprintf("SELECT %s FROM Contact WHERE %s LIMIT 5", strings.Join(columns, ", "), where)
}

var soqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func EscapeSOQL(s string) string {
	return soqlEscaper.Replace(s)
}
