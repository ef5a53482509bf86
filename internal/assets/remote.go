package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"designer/internal/domain"
)

// RemoteTemplates lists templates from another designer server through
// GET {BaseURL}/api/designs.
type RemoteTemplates struct {
	BaseURL string
	Client  *http.Client
}

func NewRemoteTemplates(baseURL string) *RemoteTemplates {
	return &RemoteTemplates{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RemoteTemplates) Kind() Kind { return KindTemplate }

func (r *RemoteTemplates) List(ctx context.Context, q Query) ([]Item, error) {
	v := url.Values{}
	v.Set("templates", "true")
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/designs?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var designs []domain.Design
	if err := json.NewDecoder(resp.Body).Decode(&designs); err != nil {
		return nil, fmt.Errorf("decode designs: %w", err)
	}
	items := make([]Item, 0, len(designs))
	for i := range designs {
		if err := designs[i].Scene.Validate(); err != nil {
			continue
		}
		items = append(items, TemplateItem(&designs[i]))
	}
	return items, nil
}
