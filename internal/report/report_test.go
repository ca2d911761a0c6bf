package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/forumscan/internal/model"
)

var testCreated = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

func sampleRecords() []model.Record {
	updated := testCreated.Add(time.Hour)
	replyTo := 1
	return []model.Record{
		{
			TopicID:         7,
			TopicTitle:      "GA1 doubts",
			SummaryText:     "summary",
			CategoryID:      34,
			Tags:            []string{"ga1"},
			PostID:          701,
			PostNumber:      1,
			Author:          "alice",
			CreatedAt:       testCreated,
			ReplyCount:      1,
			LikeCount:       2,
			MentionedUsers:  []string{},
			URL:             "https://forum.example.com/t/ga1/7/1",
			Content:         "When is the GA deadline?",
			Markdown:        "When is the GA deadline?",
			Hash:            "aaaaaaaaaaaaaaaaaaaa",
			Type:            model.CategoryQuestion,
			AutoTags:        []string{"GA", "deadline"},
			PopularityScore: 3,
		},
		{
			TopicID:           7,
			TopicTitle:        "GA1 doubts",
			SummaryText:       "summary",
			CategoryID:        34,
			Tags:              []string{"ga1"},
			PostID:            702,
			PostNumber:        2,
			Author:            "bob",
			CreatedAt:         testCreated.Add(time.Minute),
			UpdatedAt:         &updated,
			ReplyToPostNumber: &replyTo,
			IsReply:           true,
			IsAcceptedAnswer:  true,
			MentionedUsers:    []string{"alice"},
			URL:               "https://forum.example.com/t/ga1/7/2",
			Content:           "Thanks, it is \"Sunday\", see the GA page",
			Hash:              "bbbbbbbbbbbbbbbbbbbb",
			Type:              model.CategoryGratitude,
			AutoTags:          []string{"GA"},
			LikeCount:         5,
			PopularityScore:   5,
		},
	}
}

func sampleRun() model.CrawlRun {
	return model.CrawlRun{
		ID:         3,
		BaseURL:    "https://forum.example.com",
		CategoryID: 34,
		Window: model.DateWindow{
			From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC),
		},
		StartedAt:       testCreated,
		FinishedAt:      testCreated.Add(42 * time.Second),
		ListedTopics:    5,
		ProcessedTopics: 1,
		RecordCount:     2,
	}
}

// TestJSONWriter tests the JSON record writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes an indented array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteRecords(sampleRecords())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		if !strings.HasPrefix(out, "[\n  {\n    \"topic_id\": 7,") {
			t.Errorf("unexpected layout:\n%s", out[:min(len(out), 80)])
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 records, got %d", len(decoded))
		}
		if decoded[0]["updated_at"] != nil || decoded[0]["reply_to_post_number"] != nil {
			t.Error("absent optional values must be null")
		}
		if len(decoded[0]) != len(model.RecordColumns) {
			t.Errorf("expected %d keys, got %d", len(model.RecordColumns), len(decoded[0]))
		}
	})

	t.Run("nil records are an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRecords(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "[]\n" {
			t.Errorf("got %q", buf.String())
		}
	})
}

// TestCSVWriter tests the CSV record writer.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("header and cells", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).WriteRecords(sampleRecords()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rows, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header + 2 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != strings.Join(model.RecordColumns, ",") {
			t.Errorf("unexpected header %v", rows[0])
		}

		col := func(row []string, name string) string {
			for i, c := range model.RecordColumns {
				if c == name {
					return row[i]
				}
			}
			t.Fatalf("unknown column %q", name)
			return ""
		}

		first, second := rows[1], rows[2]
		if col(first, "updated_at") != "" || col(first, "reply_to_post_number") != "" {
			t.Error("absent optional values must be empty cells")
		}
		if col(first, "auto_tags") != `["GA","deadline"]` || col(first, "mentioned_users") != "[]" {
			t.Errorf("unexpected list cells %q %q", col(first, "auto_tags"), col(first, "mentioned_users"))
		}
		if col(second, "reply_to_post_number") != "1" || col(second, "is_reply") != "true" {
			t.Errorf("unexpected reply cells %v", second)
		}
		if col(second, "content") != `Thanks, it is "Sunday", see the GA page` {
			t.Errorf("quoting not preserved: %q", col(second, "content"))
		}
		if col(first, "created_at") != "2025-02-03T04:05:06Z" {
			t.Errorf("unexpected timestamp %q", col(first, "created_at"))
		}
	})

	t.Run("empty input still has a header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewCSVWriter(&buf).WriteRecords(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 || !strings.HasPrefix(buf.String(), "topic_id,topic_title,") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

// TestMultiWriter tests writing records to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var jsonBuf, csvBuf bytes.Buffer
	total, err := NewMultiWriter(NewJSONWriter(&jsonBuf), NewCSVWriter(&csvBuf)).WriteRecords(sampleRecords())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != jsonBuf.Len()+csvBuf.Len() {
		t.Errorf("total %d does not match outputs", total)
	}

	var after bytes.Buffer
	_, err = NewMultiWriter(NewJSONWriter(failingWriter{}), NewJSONWriter(&after)).WriteRecords(sampleRecords())
	if err == nil {
		t.Error("expected error")
	}
	if after.Len() != 0 {
		t.Error("writers after a failure must not run")
	}
}

// TestNewSummary tests summary aggregation.
func TestNewSummary(t *testing.T) {
	t.Parallel()

	s := NewSummary(sampleRun(), sampleRecords(), 1)

	if s.Total() != 2 || s.Topics != 1 {
		t.Errorf("unexpected totals %d/%d", s.Total(), s.Topics)
	}
	if s.Categories[0].Category != model.CategoryQuestion || s.Categories[0].Count != 1 {
		t.Errorf("unexpected categories %+v", s.Categories)
	}
	if len(s.TopTags) != 1 || s.TopTags[0].Tag != "GA" || s.TopTags[0].Count != 2 {
		t.Errorf("unexpected top tags %+v", s.TopTags)
	}
	if len(s.TopPosts) != 1 || s.TopPosts[0].PostID != 702 {
		t.Errorf("unexpected top posts %+v", s.TopPosts)
	}
	if s.AcceptedAnswers != 1 || s.Replies != 1 {
		t.Errorf("unexpected counts %+v", s)
	}

	empty := NewSummary(sampleRun(), nil, 0)
	if empty.Total() != 0 || len(empty.Categories) != len(model.Categories) {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}

// TestMarkdownWriter tests Markdown summaries and diffs.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(NewSummary(sampleRun(), sampleRecords(), 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Forum Crawl Summary",
			"`https://forum.example.com`",
			"2025-01-01 to 2025-04-14",
			"```mermaid",
			"Post Type Distribution",
			"## Top Tags",
			"[GA1 doubts](https://forum.example.com/t/ga1/7/2)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty summary has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary(NewSummary(sampleRun(), nil, 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("empty summary must not contain a pie chart")
		}
		if !strings.Contains(buf.String(), "No records were produced") {
			t.Error("expected empty note")
		}
	})

	t.Run("diff", func(t *testing.T) {
		t.Parallel()

		baseline := sampleRecords()
		current := sampleRecords()
		current[1].Hash = "cccccccccccccccccccc"
		current = append(current, model.Record{
			PostID: 703, PostNumber: 3, TopicTitle: "GA1 doubts", Author: "carol",
			URL: "https://forum.example.com/t/ga1/7/3",
		})
		baseline = append(baseline, model.Record{PostID: 699, TopicTitle: "Old", Author: "dave"})

		run := sampleRun()
		next := run
		next.ID = 4

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteDiff(NewDiffReport(run, next, baseline, current)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Run Comparison",
			"## New Posts (1)",
			"GA1 doubts #3 by carol",
			"## Edited Posts (1)",
			"`bbbbbbbbbbbb`",
			"## Removed Posts (1)",
			"~~Old #0 by dave~~",
			"*1 posts unchanged*",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})
}

// TestSimpleWriter tests the terminal writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(NewSummary(sampleRun(), sampleRecords(), 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "FORUM CRAWL SUMMARY") || !strings.Contains(out, "Top tags: GA(2)") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("diff without changes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		d := NewDiffReport(sampleRun(), sampleRun(), sampleRecords(), sampleRecords())
		if _, err := NewSimpleWriter(&buf).WriteDiff(d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No changes.") || !strings.Contains(buf.String(), "Unchanged: 2 posts") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("runs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRuns([]model.CrawlRun{sampleRun()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "42s") || !strings.Contains(buf.String(), "1/5") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf).WriteRuns(nil); err != nil || !strings.Contains(buf.String(), "No crawl runs") {
			t.Errorf("unexpected empty output %q %v", buf.String(), err)
		}
	})
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "a longer title", max: 8, want: "a lon..."},
		{in: "日本語のタイトル", max: 5, want: "日本..."},
		{in: "abcdef", max: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
