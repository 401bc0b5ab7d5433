package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors
var (
	ErrHeaderWritten = errors.New("header already written")
	ErrNoHeader      = errors.New("record written before header")
	ErrClosed        = errors.New("asset writer closed")
)

// AssetPath builds <dir>/Assets_<broker>_<Live|Demo>.csv.
func AssetPath(dir, broker string, live bool) string {
	mode := "Demo"
	if live {
		mode = "Live"
	}
	// Path separators in a broker name would escape dir.
	broker = strings.NewReplacer("/", "_", `\`, "_").Replace(broker)
	return filepath.Join(dir, "Assets_"+broker+"_"+mode+".csv")
}

// AssetWriter streams asset records to a single file.
// It is created once per run and never reopened.
type AssetWriter struct {
	path    string
	file    *os.File
	csv     *csv.Writer
	header  bool
	records int
	closed  bool
}

// Create creates or truncates the file at path.
func Create(path string) (*AssetWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	return &AssetWriter{
		path: path,
		file: f,
		csv:  csv.NewWriter(f),
	}, nil
}

// Path returns the destination path.
func (w *AssetWriter) Path() string { return w.path }

// Records returns the number of records written.
func (w *AssetWriter) Records() int { return w.records }

// WriteHeader writes the column header. It may be called only once, before any record.
func (w *AssetWriter) WriteHeader() error {
	if w.closed {
		return ErrClosed
	}
	if w.header {
		return ErrHeaderWritten
	}
	if err := w.write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.header = true
	return nil
}

// WriteRecord appends one record line.
func (w *AssetWriter) WriteRecord(r Record) error {
	if w.closed {
		return ErrClosed
	}
	if !w.header {
		return ErrNoHeader
	}
	if err := w.write(r); err != nil {
		return fmt.Errorf("write record %s: %w", firstField(r), err)
	}
	w.records++
	return nil
}

// Close flushes and closes the file. Subsequent calls are no-ops.
func (w *AssetWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("close asset file: %w", err)
	}
	return nil
}

// write emits one line and flushes it so failures surface on the failing step.
func (w *AssetWriter) write(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

func firstField(r Record) string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}
