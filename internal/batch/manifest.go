package batch

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Manifest row statuses.
const (
	StatusPass  = "PASS"  // validated, no violations
	StatusFail  = "FAIL"  // validated, violations found
	StatusOK    = "OK"    // converted, validation disabled
	StatusError = "ERROR" // conversion of the file failed
	StatusSkip  = "SKIP"  // file held no chats
)

// Row is one manifest line: a converted chat or a failed/skipped file.
type Row struct {
	File   string
	Title  string
	Seed   string
	Models string
	Status string
	Detail string
}

var manifestHeader = []string{"file", "title", "seed", "models", "status", "detail"}

// Manifest accumulates rows during a run and appends them to a CSV file in
// one flush at the end. The header is written once, only when the file does
// not exist yet, so repeated runs keep appending to the same manifest.
type Manifest struct {
	path string
	rows []Row
}

// OpenManifest prepares the manifest at path, creating it with a header row
// if needed.
func OpenManifest(path string) (*Manifest, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create manifest: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(manifestHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write manifest header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write manifest header: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close manifest: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	return &Manifest{path: path}, nil
}

// Add queues a row for the final flush.
func (m *Manifest) Add(row Row) {
	m.rows = append(m.rows, row)
}

// Flush appends all queued rows to the manifest file.
func (m *Manifest) Flush() error {
	if len(m.rows) == 0 {
		return nil
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range m.rows {
		record := []string{row.File, row.Title, row.Seed, row.Models, row.Status, row.Detail}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	m.rows = nil
	return nil
}
