package yolink

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakePlatform simulates the YoLink token and API endpoints for tests.
type fakePlatform struct {
	mu sync.Mutex

	tokenCalls   int
	apiCalls     int
	grantTypes   []string
	tokenCounter int

	failRefresh bool // refresh_token grant returns 401
	failFetch   bool // client_credentials grant returns 401

	// apiHandler decides each API response; attempt is 1-based.
	apiHandler func(attempt int, req APIRequest) (int, apiEnvelope)

	server *httptest.Server
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	p := &fakePlatform{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/api", p.handleAPI)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePlatform) client() *Client {
	c := NewClient()
	c.TokenURL = p.server.URL + "/token"
	c.APIURL = p.server.URL + "/api"
	return c
}

func (p *fakePlatform) handleToken(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenCalls++

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	grant := r.PostFormValue("grant_type")
	p.grantTypes = append(p.grantTypes, grant)

	if (grant == "refresh_token" && p.failRefresh) || (grant == "client_credentials" && p.failFetch) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "010102", "msg": "invalid grant"})
		return
	}

	p.tokenCounter++
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  fmt.Sprintf("access-%d", p.tokenCounter),
		"token_type":    "bearer",
		"expires_in":    7200,
		"refresh_token": fmt.Sprintf("refresh-%d", p.tokenCounter),
		"scope":         []string{"create"},
	})
}

func (p *fakePlatform) handleAPI(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.apiCalls++
	attempt := p.apiCalls
	handler := p.apiHandler
	p.mu.Unlock()

	var req APIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	status, env := http.StatusOK, apiEnvelope{Code: codeSuccess}
	if handler != nil {
		status, env = handler(attempt, req)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (p *fakePlatform) counts() (tokenCalls, apiCalls int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls, p.apiCalls
}

func successData(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal test data: %v", err)
	}
	return data
}
