package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/genc-murat/fragbench/config"
	"github.com/genc-murat/fragbench/internal/core/models"
	"github.com/genc-murat/fragbench/internal/core/ports"
	"github.com/genc-murat/fragbench/internal/storage"
)

// Open opens path for appending in the given format. The file stays locked
// until the writer is closed.
func Open(path, format string) (ports.ResultWriter, error) {
	rf, err := storage.OpenResultFile(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case config.FormatCSV, "":
		return &csvWriter{file: rf}, nil
	case config.FormatJSONL:
		return &jsonlWriter{file: rf}, nil
	default:
		rf.Close()
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// csvWriter writes a header only into a fresh file. The column order is
// fixed by the first row it sees.
type csvWriter struct {
	file    *storage.ResultFile
	columns []string
}

func (w *csvWriter) Path() string { return w.file.Path() }

func (w *csvWriter) Write(rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	cw := csv.NewWriter(w.file)
	if w.columns == nil {
		w.columns = Columns(rows[0])
		if w.file.Fresh() {
			if err := cw.Write(w.columns); err != nil {
				return fmt.Errorf("writing header to %s: %w", w.Path(), err)
			}
		}
	}
	for _, row := range rows {
		if err := cw.Write(Values(row, w.columns)); err != nil {
			return fmt.Errorf("writing row %d to %s: %w", row.Run, w.Path(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", w.Path(), err)
	}
	return nil
}

func (w *csvWriter) Close() error { return w.file.Close() }

type jsonlWriter struct {
	file *storage.ResultFile
}

func (w *jsonlWriter) Path() string { return w.file.Path() }

func (w *jsonlWriter) Write(rows []models.Row) error {
	enc := json.NewEncoder(w.file)
	for _, row := range rows {
		if err := enc.Encode(toJSONRow(row)); err != nil {
			return fmt.Errorf("writing row %d to %s: %w", row.Run, w.Path(), err)
		}
	}
	return nil
}

func (w *jsonlWriter) Close() error { return w.file.Close() }
