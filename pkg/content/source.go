package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olimci/bijou/pkg/config"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrUnavailable = errors.New("content unavailable")
)

// Source opens content by its site-absolute path, such as
// "/content/data/home.yml".
type Source interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// HTTPSource fetches content from a deployed site.
type HTTPSource struct {
	Base   string
	Client *http.Client
	// CacheBust appends ?v=<unix millis> so intermediaries never serve a
	// stale copy.
	CacheBust bool
	Now       func() time.Time
}

func NewHTTPSource(base string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		Base:      strings.TrimRight(base, "/"),
		Client:    &http.Client{Timeout: timeout},
		CacheBust: true,
		Now:       time.Now,
	}
}

// URL is the address fetched for path.
func (s *HTTPSource) URL(path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(s.Base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	if s.CacheBust {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		q := u.Query()
		q.Set("v", strconv.FormatInt(now().UnixMilli(), 10))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (s *HTTPSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	target, err := s.URL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		res.Body.Close()
		return nil, fmt.Errorf("%w: %w: GET %s: %s", ErrUnavailable, ErrNotFound, path, res.Status)
	case res.StatusCode < 200 || res.StatusCode > 299:
		res.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: %s", ErrUnavailable, path, res.Status)
	}
	return res.Body, nil
}

// FSSource reads content from a site directory.
type FSSource struct {
	FS fs.FS
}

func NewFSSource(root string) *FSSource {
	return &FSSource{FS: os.DirFS(root)}
}

func (s *FSSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(path, "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid path %q", ErrUnavailable, path)
	}

	f, err := s.FS.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w: %s", ErrUnavailable, ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return f, nil
}

// NewSource picks the configured source: the deployed site when site.url is
// set, the site directory otherwise.
func NewSource(cfg *config.Config) Source {
	if cfg.Site.URL != "" {
		src := NewHTTPSource(cfg.Site.URL, cfg.Sources.Timeout.Duration)
		src.CacheBust = cfg.Sources.CacheBust
		return src
	}
	return NewFSSource(cfg.Site.Root)
}
