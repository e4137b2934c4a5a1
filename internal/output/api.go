package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"
)

// APIWriter represents a writer that posts exports to an http endpoint.
type APIWriter struct {
	*WriterConfig
	client *http.Client
	logger *slog.Logger
}

// NewAPIWriter returns a new APIWriter
func NewAPIWriter(wc *WriterConfig) (*APIWriter, error) {
	if wc.Uri == "" {
		return nil, errors.New("uri needs to be specified for the APIWriter")
	}
	return &APIWriter{
		WriterConfig: wc,
		client: &http.Client{
			Timeout: time.Second * 60,
		},
		logger: slog.With(slog.String("writer", string(API_WRITER_TYPE))),
	}, nil
}

func (w *APIWriter) Write(name, content string) error {
	req, err := http.NewRequest(http.MethodPost, w.Uri, bytes.NewBufferString(content))
	if err != nil {
		return err
	}
	contentType := "application/json"
	if filepath.Ext(name) == ".csv" {
		contentType = "text/csv"
	}
	req.Header = map[string][]string{
		"Content-Type": {contentType},
	}
	if w.User != "" {
		req.SetBasicAuth(w.User, w.Password)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while sending post request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error while reading post request response: %w", err)
		}
		return fmt.Errorf("error while posting export. Status Code: %d Response: %s", resp.StatusCode, body)
	}
	w.logger.Info(fmt.Sprintf("posted export %s to %s", name, w.Uri))
	return nil
}
