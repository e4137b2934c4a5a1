// Package fetch provides fetchers that load the html of a page, either as served
// (static) or as rendered by a headless chrome (dynamic).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"

	"github.com/jakopako/gopick/internal/log"
	"github.com/jakopako/gopick/internal/types"
	"github.com/jakopako/gopick/internal/utils"
)

// ErrPageNotFound is returned by the MockFetcher for unknown urls.
var ErrPageNotFound = errors.New("page not found")

// A Fetcher allows to fetch the content of a web page
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOpts) (string, error)
	Cancel() // only needed for the dynamic fetcher
}

// FetcherType encapsulates the type of a fetcher
type FetcherType string

const (
	STATIC_FETCHER_TYPE  FetcherType = "static"
	DYNAMIC_FETCHER_TYPE FetcherType = "dynamic"
	MOCK_FETCHER_TYPE    FetcherType = "mock"
)

// MockPage is a page served by the MockFetcher.
type MockPage struct {
	Url     string `yaml:"url"`
	Content string `yaml:"content"`
}

// FetcherConfig defines the necessary parameters to create a fetcher.
type FetcherConfig struct {
	Type           FetcherType `yaml:"type" env:"GOPICK_FETCHER_TYPE"`
	UserAgent      string      `yaml:"user_agent" env:"GOPICK_USER_AGENT"`
	PageLoadWaitMS int         `yaml:"page_load_wait_ms" env:"GOPICK_PAGE_LOAD_WAIT_MS"`
	WaitSelector   string      `yaml:"wait_selector" env:"GOPICK_WAIT_SELECTOR"` // dynamic only, replaces the page load wait
	DebugDir       string      `yaml:"debug_dir"`
	MockPages      []MockPage  `yaml:"mock_pages,omitempty"`
}

// FetchOpts are per request options.
type FetchOpts struct {
	Interaction []*types.Interaction
}

// DefaultFetcherType returns the fetcher type used when none is configured.
func DefaultFetcherType() FetcherType {
	return STATIC_FETCHER_TYPE
}

// NewFetcher returns a new fetcher depending on the fetcher type
func NewFetcher(fc *FetcherConfig) (Fetcher, error) {
	switch fc.Type {
	case STATIC_FETCHER_TYPE, "":
		return NewStaticFetcher(fc), nil
	case DYNAMIC_FETCHER_TYPE:
		return NewDynamicFetcher(fc), nil
	case MOCK_FETCHER_TYPE:
		return NewMockFetcher(fc), nil
	default:
		return nil, fmt.Errorf("fetcher of type '%s' not implemented", fc.Type)
	}
}

// writeHTMLToFile stores the fetched html in dir for debugging purposes.
func writeHTMLToFile(ctx context.Context, urlStr, content, dir string) {
	logger := log.LoggerFromContext(ctx)
	u, err := url.Parse(urlStr)
	if err != nil {
		logger.Warn(fmt.Sprintf("not writing html to file: %v", err))
		return
	}
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			logger.Warn(fmt.Sprintf("failed to create debug directory: %v", err))
			return
		}
	}
	r, err := utils.RandomString(u.Host)
	if err != nil {
		logger.Warn(fmt.Sprintf("not writing html to file: %v", err))
		return
	}
	filename := path.Join(dir, fmt.Sprintf("%s.html", r))
	logger.Debug(fmt.Sprintf("writing html to file %s", filename), slog.String("url", urlStr))
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		logger.Warn(fmt.Sprintf("failed to write html to file: %v", err))
	}
}
