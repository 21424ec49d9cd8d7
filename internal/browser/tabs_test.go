package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tabs/active", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t1","url":"https://www.notion.so/workspace/page","agentUrl":"ws://127.0.0.1:9777/tabs/t1/agent"}`))
	}))
	defer srv.Close()

	tab, err := NewTabs(srv.URL).ActiveTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", tab.ID)
	assert.Equal(t, "ws://127.0.0.1:9777/tabs/t1/agent", tab.AgentURL)
}

func TestActiveTab_NoActiveTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewTabs(srv.URL).ActiveTab(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveTab)
}

func TestActiveTab_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewTabs(srv.URL).ActiveTab(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoActiveTab)
}

func TestActiveTab_RelayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewTabs(srv.URL).ActiveTab(context.Background())
	assert.Error(t, err)
}

func TestMatchesOrigin(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		origin string
		want   bool
	}{
		{"exact_prefix", "https://www.notion.so/workspace", "https://www.notion.so/", true},
		{"other_site", "https://example.com/", "https://www.notion.so/", false},
		{"subdomain_mismatch", "https://docs.notion.so/", "https://www.notion.so/", false},
		{"empty_origin", "https://www.notion.so/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := Tab{URL: tt.url}
			assert.Equal(t, tt.want, tab.MatchesOrigin(tt.origin))
		})
	}
}
