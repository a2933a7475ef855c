// Package jaxa implements the imagery API against an HTTP render endpoint
// serving JAXA Earth collections.
package jaxa

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register gif decoder
	_ "image/jpeg" // register jpeg decoder
	_ "image/png"  // register png decoder
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	_ "golang.org/x/image/tiff" // register tiff decoder for GeoTIFF renders
	_ "golang.org/x/image/webp" // register webp decoder

	"github.com/geoquiz/hintkit/internal/core/model"
	"github.com/geoquiz/hintkit/internal/core/observability"
	"github.com/geoquiz/hintkit/internal/imagery"
)

const upstreamName = "render"

// StatusError reports a non-2xx answer from the render endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

type Client struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint *url.URL
	startNow func() time.Time // for tests
}

var _ imagery.API = (*Client)(nil)

func New(logger *slog.Logger, client *http.Client, endpoint string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse render url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("render url %q must be absolute", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		logger:   logger,
		client:   client,
		endpoint: u,
		startNow: time.Now,
	}, nil
}

// GetImage performs one render request. No retries are attempted.
func (c *Client) GetImage(ctx context.Context, p imagery.Params) (*model.Image, error) {
	u := *c.endpoint
	q := u.Query()
	for k, vs := range BuildImageParams(p) {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/*;q=0.8")

	start := c.startNow()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	observability.ObserveUpstreamLatency(upstreamName, dur.Seconds())
	c.logger.DebugContext(ctx, "render done",
		"status", resp.StatusCode,
		"band", p.Band,
		"duration", dur.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	img := &model.Image{Data: b, ContentType: resp.Header.Get("Content-Type")}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(b)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img, nil
}
