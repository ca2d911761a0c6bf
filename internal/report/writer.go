package report

import (
	"io"

	"github.com/nao1215/forumscan/internal/model"
)

// Writer writes the flat record list of a run.
//
// Design decision: Record output and run summaries are separate
// interfaces. The record files are the product of a run and must carry
// exactly the record keys, while summaries are for people and may change
// layout freely.
type Writer interface {
	// WriteRecords outputs records in order.
	// Returns the number of bytes written and any error encountered.
	WriteRecords(records []model.Record) (int, error)
}

// SummaryWriter renders run summaries and run comparisons.
type SummaryWriter interface {
	WriteSummary(s *Summary) (int, error)
	WriteDiff(d *DiffReport) (int, error)
}

// MultiWriter writes records to multiple Writers.
// It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRecords implements Writer.
// Returns the total bytes written across all writers.
func (m *MultiWriter) WriteRecords(records []model.Record) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRecords(records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts bytes passed through to w.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
