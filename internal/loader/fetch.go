package loader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/opencivic/parcelgeo/internal/config"
)

// Fetcher downloads source datasets into the raw cache directory. A file
// already present in the cache is reused unless ForceRepull is set.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgent   string
	rawDir      string
	forceRepull bool
	concurrency int
	log         *zap.Logger
}

// NewFetcher builds a fetcher from config.
func NewFetcher(cfg config.FetchConfig, rawDir string) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	concurrency := cfg.MaxConcurrent
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		userAgent:   cfg.UserAgent,
		rawDir:      rawDir,
		forceRepull: cfg.ForceRepull,
		concurrency: concurrency,
		log:         zap.L().With(zap.String("component", "loader.fetch")),
	}
}

// Fetch returns the local path of the source's raw file, downloading it
// first when the cache misses. Partial downloads never land in the cache:
// the file is written to a temp name and renamed on success.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (string, error) {
	dest := filepath.Join(f.rawDir, src.Filename)

	if !f.forceRepull {
		if _, err := os.Stat(dest); err == nil {
			f.log.Debug("cache hit", zap.String("source", src.Name), zap.String("path", dest))
			return dest, nil
		}
	}

	if err := os.MkdirAll(f.rawDir, 0o755); err != nil {
		return "", eris.Wrap(err, "loader: create raw dir")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "loader: rate limiter wait")
	}

	f.log.Info("downloading source", zap.String("source", src.Name), zap.String("url", src.URL))
	if err := f.download(ctx, src.URL, dest); err != nil {
		return "", eris.Wrapf(err, "loader: fetch %s", src.Name)
	}
	return dest, nil
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.rawDir, filepath.Base(dest)+".*")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "write file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "rename into cache")
	}
	return nil
}

// FetchAll fetches every source concurrently, bounded by the configured
// concurrency, and returns local paths keyed by source name.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []Source) (map[string]string, error) {
	paths := make([]string, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			p, err := f.Fetch(gctx, src)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(srcs))
	for i, src := range srcs {
		out[src.Name] = paths[i]
	}
	return out, nil
}
