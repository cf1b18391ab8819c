package memory

import (
	"context"
	"fmt"
	"sync"

	ports "bilancio/internal/sheets"
)

// Exporter keeps exported rows in memory. It backs local runs without
// Google credentials and the worker tests.
type Exporter struct {
	mu   sync.Mutex
	rows []ports.Row
	err  error
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the row and returns a synthetic row reference.
func (e *Exporter) Export(_ context.Context, row ports.Row) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// FailWith makes subsequent exports return err; nil restores normal behavior.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Rows returns a copy of the exported rows.
func (e *Exporter) Rows() []ports.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Row(nil), e.rows...)
}
