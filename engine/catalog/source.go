package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
)

const DefaultTimeout = 10 * time.Second

// HTTPSource downloads the manifest from a URL.
type HTTPSource struct {
	client *resty.Client
	url    string
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(retryCondition)
	return &HTTPSource{client: client, url: url}
}

// retryCondition retries on transport errors and server-side failures.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %s", resp.Status())
	}
	return resp.Body(), nil
}

func (s *HTTPSource) String() string {
	return s.url
}

// FileSource reads the manifest from a file.
type FileSource struct {
	fs   afero.Fs
	path string
}

func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// Fetch reads the manifest. A missing file counts as no catalog.
func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoSource, s.path)
	}
	return data, err
}

func (s *FileSource) String() string {
	return s.path
}

// NewSource picks the URL when set, then the file. It returns nil when
// neither is configured.
func NewSource(fs afero.Fs, url, file string, timeout time.Duration) Source {
	switch {
	case url != "":
		return NewHTTPSource(url, timeout)
	case file != "":
		return NewFileSource(fs, file)
	default:
		return nil
	}
}
