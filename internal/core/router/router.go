// Package router parses quiz API requests and serves the hint and quiz helpers.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/geoquiz/hintkit/internal/core/config"
	"github.com/geoquiz/hintkit/internal/core/model"
	"github.com/geoquiz/hintkit/internal/core/observability"
	"github.com/geoquiz/hintkit/internal/hints"
	"github.com/geoquiz/hintkit/internal/imagery"
	"github.com/geoquiz/hintkit/internal/imagery/jaxa"
	mylog "github.com/geoquiz/hintkit/internal/logger"
	"github.com/geoquiz/hintkit/internal/quiz"
)

const maxImageSide = 4096

// ImageFetcher is satisfied by *imagery.Fetcher.
type ImageFetcher interface {
	FetchDatasetImage(ctx context.Context, collection, band string, bbox model.BBox, width, height int, colorMap model.ColorMap) (*model.Image, error)
}

// PointSource draws random quiz points.
type PointSource interface {
	RandomPoint() model.GeoPoint
}

type Handlers struct {
	logger  *slog.Logger
	cfg     config.Config
	fetcher ImageFetcher
	points  PointSource
}

func NewHandlers(logger *slog.Logger, cfg config.Config, fetcher ImageFetcher, points PointSource) *Handlers {
	return &Handlers{logger: logger, cfg: cfg, fetcher: fetcher, points: points}
}

// Mount registers the quiz routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/hints", h.ListHints)
	r.Get("/hints/{key}/image", h.HintImage)
	r.Get("/labels", h.ListLabels)
	r.Get("/quiz/random-point", h.RandomPoint)
	r.Get("/quiz/distance", h.Distance)
}

func (h *Handlers) ListHints(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hints.Datasets())
}

func (h *Handlers) ListLabels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hints.MarkerLabels())
}

type randomPointResp struct {
	model.GeoPoint
	Cell string `json:"cell,omitempty"`
}

func (h *Handlers) RandomPoint(w http.ResponseWriter, r *http.Request) {
	p := h.points.RandomPoint()
	out := randomPointResp{GeoPoint: p}
	if c, err := quiz.PointCell(p, h.cfg.CellRes); err == nil {
		out.Cell = c
	} else {
		h.logger.WarnContext(r.Context(), "cell lookup failed", "err", err)
	}
	writeJSON(w, http.StatusOK, out)
}

type distanceResp struct {
	Km   float64 `json:"km"`
	Same bool    `json:"same"`
}

func (h *Handlers) Distance(w http.ResponseWriter, r *http.Request) {
	p1, err := parsePoint(r, "lng1", "lat1")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p2, err := parsePoint(r, "lng2", "lat2")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, distanceResp{
		Km:   quiz.CalcDistance(p1, p2),
		Same: quiz.SamePoint(p1, p2),
	})
}

// ImageRequest is a parsed /hints/{key}/image request.
type ImageRequest struct {
	BBox    model.BBox
	Width   int
	Height  int
	DataURL bool
}

func (h *Handlers) HintImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	ds, ok := hints.Lookup(key)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown hint dataset %q", key), http.StatusNotFound)
		return
	}

	ir, err := ParseImageRequest(r, h.cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := mylog.WithDataset(r.Context(), ds.Key)
	cm := ds.ColorMap()
	img, err := h.fetcher.FetchDatasetImage(ctx, ds.API.Collection, ds.API.Band, ir.BBox, ir.Width, ir.Height, cm)
	if err != nil {
		observability.ObserveImageFetch(ds.Key, err, 0)
		h.logger.ErrorContext(ctx, "hint image fetch failed", "err", err)
		writeUpstreamError(w, mylog.RequestID(ctx), err)
		return
	}
	observability.ObserveImageFetch(ds.Key, nil, len(img.Data))

	reqKey := imagery.RequestKey(imagery.BuildParams(ds.API.Collection, ds.API.Band, ir.BBox, ir.Width, ir.Height, cm))
	w.Header().Set("X-Image-Key", reqKey)

	if ir.DataURL {
		out := ds
		out.ImgDataURL = img.DataURL()
		writeJSON(w, http.StatusOK, out)
		return
	}

	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// the request id lets players quote a failure that maps to a server log line
func writeUpstreamError(w http.ResponseWriter, reqID string, err error) {
	var (
		msg  string
		code int
	)
	var se *jaxa.StatusError
	switch {
	case errors.As(err, &se):
		msg, code = fmt.Sprintf("imagery upstream status %d", se.Code), http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		msg, code = "imagery upstream timeout", http.StatusGatewayTimeout
	default:
		msg, code = "imagery upstream error", http.StatusBadGateway
	}
	if reqID != "" {
		msg += " (request " + reqID + ")"
	}
	http.Error(w, msg, code)
}

// ParseImageRequest reads the region and size of a hint image.
// bbox wins over lng/lat when both are given.
func ParseImageRequest(r *http.Request, cfg config.Config) (ImageRequest, error) {
	q := r.URL.Query()
	out := ImageRequest{
		Width:   cfg.ImageWidth,
		Height:  cfg.ImageHeight,
		DataURL: strings.EqualFold(strings.TrimSpace(q.Get("format")), "dataurl"),
	}

	var err error
	if out.Width, err = parseSide(q.Get("width"), cfg.ImageWidth); err != nil {
		return ImageRequest{}, fmt.Errorf("invalid width: %w", err)
	}
	if out.Height, err = parseSide(q.Get("height"), cfg.ImageHeight); err != nil {
		return ImageRequest{}, fmt.Errorf("invalid height: %w", err)
	}

	if raw := strings.TrimSpace(q.Get("bbox")); raw != "" {
		bb, err := parseBBOX(raw)
		if err != nil {
			return ImageRequest{}, fmt.Errorf("invalid bbox: %w", err)
		}
		out.BBox = bb
		return out, nil
	}

	if q.Get("lng") == "" && q.Get("lat") == "" {
		return ImageRequest{}, errors.New("missing region: supply bbox or lng/lat")
	}
	center, err := parsePoint(r, "lng", "lat")
	if err != nil {
		return ImageRequest{}, err
	}
	radius := cfg.HintRadiusKm
	if raw := strings.TrimSpace(q.Get("radius_km")); raw != "" {
		radius, err = parseFloat(raw)
		if err != nil || radius <= 0 {
			return ImageRequest{}, errors.New("invalid radius_km: must be a positive number")
		}
	}
	out.BBox = quiz.HintBounds(center, radius)
	return out, nil
}

func parseSide(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse int: %w", err)
	}
	if n <= 0 || n > maxImageSide {
		return 0, fmt.Errorf("must be in [1,%d]", maxImageSide)
	}
	return n, nil
}

func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) != 4 {
		return model.BBox{}, errors.New("expected 4 comma-separated values: minLng,minLat,maxLng,maxLat")
	}
	var bb model.BBox
	for i, p := range parts {
		f, err := parseFloat(p)
		if err != nil {
			return model.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		bb[i] = f
	}
	if !(bb[0] >= -180 && bb[0] <= 180 && bb[2] >= -180 && bb[2] <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(bb[1] >= -90 && bb[1] <= 90 && bb[3] >= -90 && bb[3] <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if bb[2] <= bb[0] || bb[3] <= bb[1] {
		return model.BBox{}, errors.New("coordinates must satisfy maxLng>minLng and maxLat>minLat")
	}
	return bb, nil
}

func parsePoint(r *http.Request, lngKey, latKey string) (model.GeoPoint, error) {
	q := r.URL.Query()
	lng, err := parseFloat(q.Get(lngKey))
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("invalid %s: %w", lngKey, err)
	}
	lat, err := parseFloat(q.Get(latKey))
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("invalid %s: %w", latKey, err)
	}
	if !(lng >= -180 && lng <= 180) {
		return model.GeoPoint{}, fmt.Errorf("invalid %s: must be in [-180,180]", lngKey)
	}
	if !(lat >= -90 && lat <= 90) {
		return model.GeoPoint{}, fmt.Errorf("invalid %s: must be in [-90,90]", latKey)
	}
	return model.GeoPoint{Lng: lng, Lat: lat}, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
