package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/forumscan/internal/database"
	"github.com/nao1215/forumscan/internal/model"
)

// seedRuns stores two runs: post 2 is edited, post 1 removed and post 3 added.
func seedRuns(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	started := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	runs := []map[int64]string{
		{1: "h1", 2: "h2"},
		{2: "h2-edited", 3: "h3"},
	}
	for i, posts := range runs {
		result := &model.CrawlResult{
			Run: model.CrawlRun{
				BaseURL:         "https://forum.example.com",
				CategoryID:      34,
				StartedAt:       started.Add(time.Duration(i) * time.Hour),
				FinishedAt:      started.Add(time.Duration(i)*time.Hour + time.Minute),
				ListedTopics:    1,
				ProcessedTopics: 1,
			},
		}
		for _, id := range []int64{1, 2, 3} {
			hash, ok := posts[id]
			if !ok {
				continue
			}
			result.Records = append(result.Records, model.Record{
				TopicID:        9,
				PostID:         id,
				PostNumber:     int(id),
				CreatedAt:      started,
				URL:            "https://forum.example.com/t/topic/9/" + string(rune('0'+id)),
				MentionedUsers: []string{},
				AutoTags:       []string{},
				Hash:           hash,
				Type:           model.CategoryOther,
			})
		}
		if _, err := db.SaveRun(context.Background(), result); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	return dir
}

// TestHistoryCmd tests listing and comparing stored runs.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid run id", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "history", "abc", "--config", writeTestConfig(t, ""), "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "invalid run id") {
			t.Errorf("expected invalid run id error, got %v", err)
		}
	})

	t.Run("rejects latest with ids", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "history", "1", "--latest", "--config", writeTestConfig(t, ""), "--db-dir", t.TempDir())
		if err == nil {
			t.Error("expected error for --latest with run ids")
		}
	})

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "history", "--config", writeTestConfig(t, ""), "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No crawl runs recorded.") {
			t.Errorf("unexpected output: %q", stdout)
		}
	})

	t.Run("latest needs two runs", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "history", "--latest", "--config", writeTestConfig(t, ""), "--db-dir", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "no earlier run") {
			t.Errorf("expected no earlier run error, got %v", err)
		}
	})

	t.Run("compares two runs", func(t *testing.T) {
		t.Parallel()

		dir := seedRuns(t)
		stdout, _, err := runCLI(t, "history", "1", "2", "--config", writeTestConfig(t, ""), "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Run Comparison: #1 -> #2",
			"New posts (1):",
			"Edited posts (1):",
			"Removed posts (1):",
			"Unchanged: 0 posts",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected %q in output:\n%s", want, stdout)
			}
		}
	})

	t.Run("single id compares with previous run", func(t *testing.T) {
		t.Parallel()

		dir := seedRuns(t)
		stdout, _, err := runCLI(t, "history", "2", "--config", writeTestConfig(t, ""), "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "#1 -> #2") {
			t.Errorf("unexpected output:\n%s", stdout)
		}

		_, _, err = runCLI(t, "history", "1", "--config", writeTestConfig(t, ""), "--db-dir", dir)
		if err == nil || !strings.Contains(err.Error(), "oldest") {
			t.Errorf("expected oldest run error, got %v", err)
		}
	})

	t.Run("json listing", func(t *testing.T) {
		t.Parallel()

		dir := seedRuns(t)
		stdout, _, err := runCLI(t, "history", "--json", "--config", writeTestConfig(t, ""), "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []model.CrawlRun
		if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if len(runs) != 2 || runs[0].ID != 2 {
			t.Errorf("expected newest first, got %+v", runs)
		}
	})

	t.Run("markdown comparison", func(t *testing.T) {
		t.Parallel()

		dir := seedRuns(t)
		stdout, _, err := runCLI(t, "history", "--latest", "--markdown", "--config", writeTestConfig(t, ""), "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, "#") {
			t.Errorf("expected Markdown heading, got:\n%s", stdout)
		}
	})
}
