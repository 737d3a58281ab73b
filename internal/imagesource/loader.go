package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/utils"
)

// ObjectStore is the bucket backend the loader reads from when a source
// names a bucket object. The loader works without one; bucket sources then
// fail with a FetchError.
type ObjectStore interface {
	Get(ctx context.Context, object string) (io.ReadCloser, error)
}

type Loader struct {
	httpClient *http.Client
	store      ObjectStore
	maxBytes   int64
	logger     *logrus.Logger
}

func NewLoader(cfg *config.Config, store ObjectStore, logger *logrus.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		store:    store,
		maxBytes: int64(cfg.Source.MaxImageMB) * 1024 * 1024,
		logger:   logger,
	}
}

// Load acquires the raw image bytes for src. Remote failures surface as
// *FetchError, local read failures as *IOError; both wrap ErrTooLarge or
// ErrEmptyImage when the payload itself is the problem.
func (l *Loader) Load(ctx context.Context, src Source) (*Image, error) {
	log := utils.LogEntry(ctx, l.logger).WithField("source", src.Describe())
	log.Debug("acquiring image")

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case KindRemoteURL:
		data, err = l.fetchURL(ctx, src)
	case KindLocalPath:
		data, err = l.readFile(src)
	case KindByteStream:
		data, err = l.readStream(src)
	case KindBucketObject:
		data, err = l.fetchObject(ctx, src)
	default:
		return nil, &IOError{Source: src.Describe(), Err: fmt.Errorf("unsupported source kind %q", src.Kind())}
	}
	if err != nil {
		return nil, err
	}

	img := &Image{Data: data, MIME: http.DetectContentType(data)}

	log.WithFields(logrus.Fields{
		"bytes": len(img.Data),
		"mime":  img.MIME,
	}).Debug("image acquired")

	return img, nil
}

func (l *Loader) fetchURL(ctx context.Context, src Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, &FetchError{Source: src.Describe(), Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Source: src.Describe(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: src.Describe(), StatusCode: resp.StatusCode}
	}

	data, err := l.readCapped(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: src.Describe(), Err: err}
	}

	return data, nil
}

func (l *Loader) readFile(src Source) ([]byte, error) {
	f, err := os.Open(src.path)
	if err != nil {
		return nil, &IOError{Source: src.Describe(), Err: err}
	}
	defer f.Close()

	data, err := l.readCapped(f)
	if err != nil {
		return nil, &IOError{Source: src.Describe(), Err: err}
	}

	return data, nil
}

func (l *Loader) readStream(src Source) ([]byte, error) {
	if src.reader == nil {
		return nil, &IOError{Source: src.Describe(), Err: errors.New("nil reader")}
	}

	data, err := l.readCapped(src.reader)
	if err != nil {
		return nil, &IOError{Source: src.Describe(), Err: err}
	}

	return data, nil
}

func (l *Loader) fetchObject(ctx context.Context, src Source) ([]byte, error) {
	if l.store == nil {
		return nil, &FetchError{Source: src.Describe(), Err: errors.New("no bucket configured")}
	}

	rc, err := l.store.Get(ctx, src.object)
	if err != nil {
		return nil, &FetchError{Source: src.Describe(), Err: err}
	}
	defer rc.Close()

	data, err := l.readCapped(rc)
	if err != nil {
		return nil, &FetchError{Source: src.Describe(), Err: err}
	}

	return data, nil
}

// readCapped reads at most maxBytes and rejects payloads over the cap or
// empty, so no oversized body is ever buffered in full.
func (l *Loader) readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}
