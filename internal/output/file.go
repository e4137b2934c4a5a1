package output

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// FileWriter represents a writer that writes to a file in a directory
type FileWriter struct {
	dir    string
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.Dir == "" {
		return nil, errors.New("dir needs to be specified for the FileWriter")
	}
	return &FileWriter{
		dir:    wc.Dir,
		logger: slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

// Path returns the path a file called name would be written to.
func (w *FileWriter) Path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *FileWriter) Write(name, content string) error {
	if name == "" {
		return errors.New("file name cannot be empty")
	}
	path := w.Path(name)
	if err := WriteExportFile(path, content); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing export: %v", err))
		return err
	}
	w.logger.Info(fmt.Sprintf("wrote export to file %s", path))
	return nil
}
