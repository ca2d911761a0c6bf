package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/forumscan/internal/model"
)

// SimpleWriter outputs plain text for the terminal.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// WriteSummary implements SummaryWriter.
func (w *SimpleWriter) WriteSummary(s *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("FORUM CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Forum:     %s (category %d)\n", s.Run.BaseURL, s.Run.CategoryID)
	fmt.Fprintf(&sb, "Window:    %s to %s\n", formatDate(s.Run.Window.From), formatDate(s.Run.Window.To))
	fmt.Fprintf(&sb, "Topics:    %d listed, %d processed\n", s.Run.ListedTopics, s.Run.ProcessedTopics)
	fmt.Fprintf(&sb, "Records:   %d (%d replies, %d accepted answers)\n", s.Total(), s.Replies, s.AcceptedAnswers)
	if s.NewRecords != s.Total() {
		fmt.Fprintf(&sb, "New:       %d not seen in earlier runs\n", s.NewRecords)
	}

	sb.WriteString("\nPost types:\n")
	for _, c := range s.Categories {
		fmt.Fprintf(&sb, "  %-12s %d\n", c.Category, c.Count)
	}

	if len(s.TopTags) > 0 {
		tags := make([]string, len(s.TopTags))
		for i, t := range s.TopTags {
			tags[i] = fmt.Sprintf("%s(%d)", t.Tag, t.Count)
		}
		fmt.Fprintf(&sb, "\nTop tags: %s\n", strings.Join(tags, ", "))
	}

	if len(s.TopPosts) > 0 {
		sb.WriteString("\nMost popular posts:\n")
		for _, r := range s.TopPosts {
			fmt.Fprintf(&sb, "  [%3d] %s\n", r.PopularityScore, r.URL)
		}
	}

	return io.WriteString(w.output, sb.String())
}

// WriteDiff implements SummaryWriter.
func (w *SimpleWriter) WriteDiff(d *DiffReport) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run Comparison: #%d -> #%d\n", d.Baseline.ID, d.Current.ID)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Baseline: %s (%d records)\n", formatTime(d.Baseline.StartedAt), d.Baseline.RecordCount)
	fmt.Fprintf(&sb, "Current:  %s (%d records, %s)\n",
		formatTime(d.Current.StartedAt), d.Current.RecordCount,
		formatDelta(d.Current.RecordCount-d.Baseline.RecordCount))

	if len(d.Diff.Added) > 0 {
		fmt.Fprintf(&sb, "\nNew posts (%d):\n", len(d.Diff.Added))
		for _, r := range d.Diff.Added {
			fmt.Fprintf(&sb, "  [+] %s\n", r.URL)
		}
	}
	if len(d.Diff.Changed) > 0 {
		fmt.Fprintf(&sb, "\nEdited posts (%d):\n", len(d.Diff.Changed))
		for _, c := range d.Diff.Changed {
			fmt.Fprintf(&sb, "  [~] %s\n", c.New.URL)
		}
	}
	if len(d.Diff.Removed) > 0 {
		fmt.Fprintf(&sb, "\nRemoved posts (%d):\n", len(d.Diff.Removed))
		for _, r := range d.Diff.Removed {
			fmt.Fprintf(&sb, "  [-] %s\n", r.URL)
		}
	}
	if !d.Diff.HasChanges() {
		sb.WriteString("\nNo changes.\n")
	}
	fmt.Fprintf(&sb, "\nUnchanged: %d posts\n", d.Diff.Unchanged)

	return io.WriteString(w.output, sb.String())
}

// WriteRuns lists stored runs, newest first.
func (w *SimpleWriter) WriteRuns(runs []model.CrawlRun) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No crawl runs recorded.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s  %-23s  %-10s  %-8s  %s\n", "ID", "Started", "Duration", "Records", "Topics")
	sb.WriteString(strings.Repeat("-", 64) + "\n")
	for _, r := range runs {
		fmt.Fprintf(&sb, "%-6d  %-23s  %-10s  %-8d  %d/%d\n",
			r.ID,
			formatTime(r.StartedAt),
			r.Duration().Round(time.Second).String(),
			r.RecordCount,
			r.ProcessedTopics,
			r.ListedTopics,
		)
	}
	return io.WriteString(w.output, sb.String())
}
