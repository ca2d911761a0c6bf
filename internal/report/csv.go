package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/forumscan/internal/model"
)

// CSVWriter outputs records as CSV. The header is model.RecordColumns, so
// columns match the JSON keys. List values are encoded as JSON arrays and
// absent optional values as empty cells.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// WriteRecords implements Writer. The header is written even when there
// are no records.
func (w *CSVWriter) WriteRecords(records []model.Record) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(model.RecordColumns); err != nil {
		return counter.n, fmt.Errorf("write CSV header: %w", err)
	}
	for _, rec := range records {
		row, err := recordRow(rec)
		if err != nil {
			return counter.n, err
		}
		if err := cw.Write(row); err != nil {
			return counter.n, fmt.Errorf("write CSV row for post %d: %w", rec.PostID, err)
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// recordRow renders one record in RecordColumns order.
func recordRow(r model.Record) ([]string, error) {
	tags, err := jsonList(r.Tags)
	if err != nil {
		return nil, err
	}
	mentioned, err := jsonList(r.MentionedUsers)
	if err != nil {
		return nil, err
	}
	autoTags, err := jsonList(r.AutoTags)
	if err != nil {
		return nil, err
	}

	updated := ""
	if r.UpdatedAt != nil {
		updated = r.UpdatedAt.Format(time.RFC3339Nano)
	}
	replyTo := ""
	if r.ReplyToPostNumber != nil {
		replyTo = strconv.Itoa(*r.ReplyToPostNumber)
	}

	return []string{
		strconv.FormatInt(r.TopicID, 10),
		r.TopicTitle,
		r.SummaryText,
		strconv.FormatInt(r.CategoryID, 10),
		tags,
		strconv.FormatInt(r.PostID, 10),
		strconv.Itoa(r.PostNumber),
		r.Author,
		r.CreatedAt.Format(time.RFC3339Nano),
		updated,
		replyTo,
		strconv.FormatBool(r.IsReply),
		strconv.Itoa(r.ReplyCount),
		strconv.Itoa(r.LikeCount),
		strconv.FormatBool(r.IsAcceptedAnswer),
		mentioned,
		r.URL,
		r.Content,
		r.Markdown,
		r.Hash,
		r.Type.String(),
		autoTags,
		strconv.Itoa(r.PopularityScore),
	}, nil
}

// jsonList encodes a string list as a JSON array; nil becomes [].
func jsonList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list cell: %w", err)
	}
	return string(data), nil
}
