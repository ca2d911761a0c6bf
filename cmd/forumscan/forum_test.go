package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/session"
)

const (
	testListing = `{"topic_list":{"topics":[
  {"id":1,"slug":"ga1-deadline","title":"GA1 deadline","category_id":34,"tags":["ga1"],"created_at":"2025-02-01T10:00:00.000Z"},
  {"id":2,"slug":"old-topic","title":"Old topic","category_id":34,"tags":[],"created_at":"2024-12-01T10:00:00.000Z"}
]}}`

	testTopic = `{
  "id": 1,
  "accepted_answer_post_id": 11,
  "post_stream": {"posts": [
    {"id": 10, "post_number": 1, "username": "alice", "created_at": "2025-02-01T10:00:00.000Z",
     "like_count": 1, "cooked": "<p>When is the GA1 deadline?</p>"},
    {"id": 11, "post_number": 2, "username": "bob", "created_at": "2025-02-01T12:00:00.000Z",
     "reply_to_post_number": 1, "like_count": 3, "cooked": "<p>It is Friday, see the course page.</p>"}
  ]}
}`
)

// testForum serves a category with one in-window and one old topic.
// Requests without the _t=good cookie are rejected.
type testForum struct {
	srv          *httptest.Server
	topicFetches atomic.Int32
	oldFetches   atomic.Int32
}

func newTestForum(t *testing.T) *testForum {
	t.Helper()

	f := &testForum{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Cookie"), "_t=good") {
			http.Error(w, "login required", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/c/courses/tds-kb/34.json":
			if page := r.URL.Query().Get("page"); page != "" && page != "0" {
				fmt.Fprint(w, `{"topic_list":{"topics":[]}}`)
				return
			}
			fmt.Fprint(w, testListing)
		case "/t/ga1-deadline/1.json":
			f.topicFetches.Add(1)
			fmt.Fprint(w, testTopic)
		case "/t/old-topic/2.json":
			f.oldFetches.Add(1)
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// saveTestSession stores a session with the given _t value and returns the file path.
func saveTestSession(t *testing.T, value string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.json")
	err := session.NewFileStore(path).Save(&model.Session{
		Cookies: []model.Cookie{
			{Name: "_t", Value: value, Domain: "127.0.0.1", Path: "/", HTTPOnly: true},
		},
		CreatedAt: time.Now().Add(-time.Hour).UTC(),
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
