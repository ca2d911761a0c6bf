package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs run summaries and diffs in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSummary implements SummaryWriter.
func (w *MarkdownWriter) WriteSummary(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeRunHeader(md, s)
	w.writeCategories(md, s)
	w.writeTopTags(md, s)
	w.writeTopPosts(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRunHeader writes the run information table.
func (w *MarkdownWriter) writeRunHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Forum Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Forum", "`" + s.Run.BaseURL + "`"},
			{"Category", strconv.FormatInt(s.Run.CategoryID, 10)},
			{"Window", formatDate(s.Run.Window.From) + " to " + formatDate(s.Run.Window.To)},
			{"Started", formatTime(s.Run.StartedAt)},
			{"Duration", s.Run.Duration().Round(time.Millisecond).String()},
			{"Topics listed", strconv.Itoa(s.Run.ListedTopics)},
			{"Topics processed", strconv.Itoa(s.Run.ProcessedTopics)},
			{"Records", strconv.Itoa(s.Total())},
			{"Accepted answers", strconv.Itoa(s.AcceptedAnswers)},
			{"Replies", strconv.Itoa(s.Replies)},
		},
	})
	md.PlainText("")

	if s.Total() == 0 {
		md.Note("No records were produced by this run.")
		md.PlainText("")
	}
}

// writeCategories writes the category table and pie chart.
func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, s *Summary) {
	md.H2("Post Types")
	md.PlainText("")

	rows := make([][]string, 0, len(s.Categories)+1)
	for _, c := range s.Categories {
		rows = append(rows, []string{c.Category.String(), strconv.Itoa(c.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(s.Total()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Total() > 0 {
		w.writePieChart(md, s)
	}
}

// writePieChart writes a mermaid pie chart of the post type distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Post Type Distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range s.Categories {
		if c.Count > 0 {
			chart.LabelAndIntValue(c.Category.String(), uint64(c.Count))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTopTags writes the most frequent auto tags.
func (w *MarkdownWriter) writeTopTags(md *markdown.Markdown, s *Summary) {
	md.H2("Top Tags")
	md.PlainText("")

	if len(s.TopTags) == 0 {
		md.PlainText("No vocabulary keywords matched.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.TopTags))
	for i, t := range s.TopTags {
		rows[i] = []string{"`" + t.Tag + "`", strconv.Itoa(t.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Posts"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeTopPosts writes the most popular posts.
func (w *MarkdownWriter) writeTopPosts(md *markdown.Markdown, s *Summary) {
	md.H2("Most Popular Posts")
	md.PlainText("")

	if len(s.TopPosts) == 0 {
		md.PlainText("No posts.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.TopPosts))
	for i, r := range s.TopPosts {
		rows[i] = []string{
			markdown.Link(truncateString(r.TopicTitle, 50), r.URL),
			r.Author,
			r.Type.String(),
			strconv.Itoa(r.LikeCount),
			strconv.Itoa(r.ReplyCount),
			strconv.Itoa(r.PopularityScore),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Topic", "Author", "Type", "Likes", "Replies", "Score"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteDiff implements SummaryWriter.
func (w *MarkdownWriter) WriteDiff(d *DiffReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Run Comparison")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Baseline", "Current", "Change"},
		Rows: [][]string{
			{"Run", "#" + strconv.FormatInt(d.Baseline.ID, 10), "#" + strconv.FormatInt(d.Current.ID, 10), "-"},
			{"Date", formatTime(d.Baseline.StartedAt), formatTime(d.Current.StartedAt), "-"},
			{"Records", strconv.Itoa(d.Baseline.RecordCount), strconv.Itoa(d.Current.RecordCount),
				formatDelta(d.Current.RecordCount - d.Baseline.RecordCount)},
			{"Topics", strconv.Itoa(d.Baseline.ProcessedTopics), strconv.Itoa(d.Current.ProcessedTopics),
				formatDelta(d.Current.ProcessedTopics - d.Baseline.ProcessedTopics)},
		},
	})
	md.PlainText("")

	if !d.Diff.HasChanges() {
		md.Tip("No posts were added, removed or edited between these runs.")
		md.PlainText("")
	}

	if len(d.Diff.Added) > 0 {
		md.H2f("New Posts (%d)", len(d.Diff.Added))
		md.PlainText("")
		items := make([]string, len(d.Diff.Added))
		for i, r := range d.Diff.Added {
			items[i] = markdown.Link(postLabel(r.TopicTitle, r.PostNumber, r.Author), r.URL)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(d.Diff.Changed) > 0 {
		md.H2f("Edited Posts (%d)", len(d.Diff.Changed))
		md.PlainText("")
		items := make([]string, len(d.Diff.Changed))
		for i, c := range d.Diff.Changed {
			items[i] = markdown.Link(postLabel(c.New.TopicTitle, c.New.PostNumber, c.New.Author), c.New.URL) +
				" (" + markdown.Code(shortHash(c.Old.Hash)) + " → " + markdown.Code(shortHash(c.New.Hash)) + ")"
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(d.Diff.Removed) > 0 {
		md.H2f("Removed Posts (%d)", len(d.Diff.Removed))
		md.PlainText("")
		items := make([]string, len(d.Diff.Removed))
		for i, r := range d.Diff.Removed {
			items[i] = markdown.Strikethrough(postLabel(r.TopicTitle, r.PostNumber, r.Author))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if d.Diff.Unchanged > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d posts unchanged*", d.Diff.Unchanged)
	}

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [forumscan](https://github.com/nao1215/forumscan)*")
}
