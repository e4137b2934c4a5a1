package output

import (
	"fmt"
	"io"
	"log/slog"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct {
	out    io.Writer
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter writing to out
func NewStdoutWriter(out io.Writer) *StdoutWriter {
	return &StdoutWriter{
		out:    out,
		logger: slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) Write(name, content string) error {
	if _, err := fmt.Fprintln(w.out, content); err != nil {
		w.logger.Error(fmt.Sprintf("error while writing export %s: %v", name, err))
		return err
	}
	return nil
}
