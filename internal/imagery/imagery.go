// Package imagery forwards rendered-raster requests to the imagery API.
package imagery

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/geoquiz/hintkit/internal/core/model"
)

// Params is the request shape the imagery API expects.
type Params struct {
	Collection string
	Band       string
	BBox       [4]float64
	Width      int
	Height     int
	ColorMap   model.ColorMap
}

// API renders one image per call. Implementations own transport, timeouts and errors.
type API interface {
	GetImage(ctx context.Context, p Params) (*model.Image, error)
}

// BuildParams adapts fetch arguments to the API request shape without altering any value.
func BuildParams(collection, band string, bbox model.BBox, width, height int, colorMap model.ColorMap) Params {
	return Params{
		Collection: collection,
		Band:       band,
		BBox:       [4]float64(bbox),
		Width:      width,
		Height:     height,
		ColorMap:   colorMap,
	}
}

type Fetcher struct {
	logger *slog.Logger
	api    API
}

func NewFetcher(logger *slog.Logger, api API) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{logger: logger, api: api}
}

// FetchDatasetImage asks the API for one image and returns its result as is.
// Errors from the API are returned unwrapped.
func (f *Fetcher) FetchDatasetImage(
	ctx context.Context,
	collection, band string,
	bbox model.BBox,
	width, height int,
	colorMap model.ColorMap,
) (*model.Image, error) {
	p := BuildParams(collection, band, bbox, width, height, colorMap)
	f.logger.DebugContext(ctx, "fetch dataset image",
		"request_key", RequestKey(p),
		"band", band,
		"bbox", bbox.String())
	return f.api.GetImage(ctx, p)
}

// RequestKey fingerprints a request for log correlation and HTTP validators.
func RequestKey(p Params) string {
	var b strings.Builder
	b.Grow(256)
	b.WriteString(p.Collection)
	b.WriteByte('|')
	b.WriteString(p.Band)
	for _, v := range p.BBox {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(p.Width))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(p.Height))
	cm := p.ColorMap
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(cm.Min, 'g', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(cm.Max, 'g', -1, 64))
	b.WriteByte(',')
	b.WriteString(cm.Colors)
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(cm.DeleteMin))
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(cm.DeleteMax))
	b.WriteByte(',')
	b.WriteString(strconv.FormatBool(cm.Log10))
	b.WriteByte(',')
	b.WriteString(cm.NanColor)
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
