// Package browser resolves the active browser tab through the local relay.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoActiveTab is returned when the relay reports no focused tab
var ErrNoActiveTab = errors.New("no active tab")

// Tab describes one browser tab as reported by the relay
type Tab struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	AgentURL string `json:"agentUrl"`
}

// MatchesOrigin reports whether the tab's URL lives under the given origin
// prefix
func (t Tab) MatchesOrigin(origin string) bool {
	return origin != "" && strings.HasPrefix(t.URL, origin)
}

// Tabs is a client for the relay's tab endpoints
type Tabs struct {
	base   string
	client *http.Client
}

// NewTabs creates a relay client against the given base URL
func NewTabs(base string) *Tabs {
	return &Tabs{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// ActiveTab returns the currently focused tab, or ErrNoActiveTab when the
// relay has none to offer
func (t *Tabs) ActiveTab(ctx context.Context) (Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.base+"/tabs/active", nil)
	if err != nil {
		return Tab{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return Tab{}, fmt.Errorf("query relay: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Tab{}, ErrNoActiveTab
	default:
		return Tab{}, fmt.Errorf("relay returned %s", resp.Status)
	}

	var tab Tab
	if err := json.NewDecoder(resp.Body).Decode(&tab); err != nil {
		return Tab{}, fmt.Errorf("decode tab: %w", err)
	}
	return tab, nil
}
