// Package output formats captured records and items and writes the result to
// a file, stdout or an api.
package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer defines the interface for all writers that are responsible for
// writing a fully formatted export to a specific output.
type Writer interface {
	// Write writes content. name is a suggested file name, writers that
	// don't write files may ignore it.
	Write(name, content string) error
}

// WriterConfig defines the necessary parameters to make a new writer.
type WriterConfig struct {
	Type     WriterType `yaml:"type" env:"GOPICK_WRITER_TYPE" env-default:"file"`
	Dir      string     `yaml:"dir" env:"GOPICK_EXPORT_DIR" env-default:"."`
	Uri      string     `yaml:"uri"`
	User     string     `yaml:"user" env:"WRITER_USER"`         // we want to be able to pass credentials via env vars
	Password string     `yaml:"password" env:"WRITER_PASSWORD"` // we want to be able to pass credentials via env vars
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
	API_WRITER_TYPE    WriterType = "api"
)

// NewWriter returns a new writer depending on the writer type
func NewWriter(wc *WriterConfig) (Writer, error) {
	switch wc.Type {
	case STDOUT_WRITER_TYPE:
		return NewStdoutWriter(os.Stdout), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	case API_WRITER_TYPE:
		return NewAPIWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}

// WriteExportFile writes content to path, creating missing parent directories.
func WriteExportFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write export file %s: %w", path, err)
	}
	return nil
}
