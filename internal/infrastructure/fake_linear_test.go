package infrastructure

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"linear-mcp-server/internal/domain"
)

type fakeIssue struct {
	ID          string
	Identifier  string
	Title       string
	Description *string
	URL         string
	State       string
	Assignee    string
	Project     string
}

type fakeRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	Authorization string         `json:"-"`
}

// fakeLinear is an in-process stand-in for the Linear GraphQL endpoint.
type fakeLinear struct {
	t      *testing.T
	issues []fakeIssue

	// failRelations maps "<operation>:<issue id>" to a status code to fail with.
	failRelations map[string]int

	mu       sync.Mutex
	requests []fakeRequest
}

func newFakeLinear(t *testing.T, issues ...fakeIssue) (*fakeLinear, *httptest.Server) {
	t.Helper()
	f := &fakeLinear{t: t, issues: issues, failRelations: map[string]int{}}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeLinear) recorded() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

func (f *fakeLinear) count(operation string) int {
	n := 0
	for _, r := range f.recorded() {
		if r.OperationName == operation {
			n++
		}
	}
	return n
}

func (f *fakeLinear) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req fakeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		f.t.Errorf("invalid request body %q: %v", body, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.Authorization = r.Header.Get("Authorization")

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	id, _ := req.Variables["id"].(string)
	if status, ok := f.failRelations[req.OperationName+":"+id]; ok {
		http.Error(w, "relation unavailable", status)
		return
	}

	var data any
	switch req.OperationName {
	case "SearchIssues":
		nodes := make([]map[string]any, 0, len(f.issues))
		for _, issue := range f.issues {
			node := issue.scalars()
			node["state"] = named(issue.State)
			node["assignee"] = named(issue.Assignee)
			node["project"] = named(issue.Project)
			nodes = append(nodes, node)
		}
		data = map[string]any{"issues": map[string]any{"nodes": nodes}}
	case "Issues":
		nodes := make([]map[string]any, 0, len(f.issues))
		for _, issue := range f.issues {
			nodes = append(nodes, issue.scalars())
		}
		data = map[string]any{"issues": map[string]any{"nodes": nodes}}
	case "IssueState":
		data = map[string]any{"issue": map[string]any{"state": named(f.issue(id).State)}}
	case "IssueAssignee":
		data = map[string]any{"issue": map[string]any{"assignee": named(f.issue(id).Assignee)}}
	case "IssueProject":
		data = map[string]any{"issue": map[string]any{"project": named(f.issue(id).Project)}}
	default:
		http.Error(w, fmt.Sprintf("unexpected operation %q", req.OperationName), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeLinear) issue(id string) fakeIssue {
	for _, issue := range f.issues {
		if issue.ID == id {
			return issue
		}
	}
	f.t.Errorf("unknown issue id %q", id)
	return fakeIssue{}
}

func (i fakeIssue) scalars() map[string]any {
	node := map[string]any{
		"id":          i.ID,
		"identifier":  i.Identifier,
		"title":       i.Title,
		"url":         i.URL,
		"description": nil,
	}
	if i.Description != nil {
		node["description"] = *i.Description
	}
	return node
}

// named renders a relation object, or null when name is empty.
func named(name string) any {
	if name == "" {
		return nil
	}
	return map[string]any{"id": "id-" + name, "name": name}
}

func strPtr(s string) *string {
	return &s
}

func sampleIssues(n int) []fakeIssue {
	issues := make([]fakeIssue, n)
	for i := range issues {
		issues[i] = fakeIssue{
			ID:          fmt.Sprintf("uuid-%d", i+1),
			Identifier:  fmt.Sprintf("ENG-%d", i+1),
			Title:       fmt.Sprintf("Login issue %d", i+1),
			Description: strPtr("Users cannot log in"),
			URL:         fmt.Sprintf("https://linear.app/acme/issue/ENG-%d", i+1),
			State:       "Todo",
			Assignee:    "Ada",
			Project:     "Auth",
		}
	}
	return issues
}

func testOptions(endpoint string) ClientOptions {
	return ClientOptions{
		Endpoint:    endpoint,
		Credentials: &domain.Credentials{Type: domain.APIKeyAuth, Token: "lin_api_test"},
	}
}
