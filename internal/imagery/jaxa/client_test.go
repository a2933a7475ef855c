package jaxa

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geoquiz/hintkit/internal/core/model"
	"github.com/geoquiz/hintkit/internal/imagery"
)

type upstreamRecorder struct {
	mu         sync.Mutex
	calls      int
	lastPath   string
	lastQuery  url.Values
	lastHeader http.Header

	status int
	ctype  string
	body   []byte
}

func (u *upstreamRecorder) handler(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls++
	u.lastPath = r.URL.Path
	u.lastQuery = r.URL.Query()
	u.lastHeader = r.Header.Clone()
	status, ctype, body := u.status, u.ctype, u.body
	u.mu.Unlock()

	if ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (u *upstreamRecorder) snapshot() (int, string, url.Values, http.Header) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls, u.lastPath, u.lastQuery, u.lastHeader
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, base)
	if err != nil {
		t.Fatalf("jaxa.New: %v", err)
	}
	return c
}

func sampleParams() imagery.Params {
	return imagery.BuildParams(
		"https://example.test/JAXA.DEM/collection.json",
		"DSM",
		model.BBox{135, 30, 140.5, 36},
		320, 240,
		model.ColorMap{Min: 0, Max: 6000, Colors: "jet", DeleteMax: true, NanColor: "#00000000"},
	)
}

func TestBuildImageParams(t *testing.T) {
	v := BuildImageParams(sampleParams())
	assertHas := func(k, want string) {
		if got := v.Get(k); got != want {
			t.Fatalf("param %q got %q want %q", k, got, want)
		}
	}
	assertHas("collection", "https://example.test/JAXA.DEM/collection.json")
	assertHas("band", "DSM")
	assertHas("bbox", "135,30,140.5,36")
	assertHas("width", "320")
	assertHas("height", "240")
	assertHas("min", "0")
	assertHas("max", "6000")
	assertHas("colors", "jet")
	assertHas("deleteMax", "true")
	assertHas("nanColor", "#00000000")
	for _, k := range []string{"deleteMin", "log10"} {
		if _, ok := v[k]; ok {
			t.Fatalf("unset flag %q should be omitted", k)
		}
	}
}

func TestGetImage_Success(t *testing.T) {
	up := &upstreamRecorder{ctype: "image/png", body: pngBytes(t, 32, 16)}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	c := newClient(t, srv.URL+"/render/image?token=abc")
	p := sampleParams()
	img, err := c.GetImage(context.Background(), p)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.ContentType != "image/png" || img.Width != 32 || img.Height != 16 {
		t.Fatalf("unexpected image meta: %+v", img)
	}
	if !bytes.Equal(img.Data, up.body) {
		t.Fatal("image bytes were altered")
	}

	calls, path, q, hdr := up.snapshot()
	if calls != 1 {
		t.Fatalf("upstream calls=%d want 1", calls)
	}
	if path != "/render/image" {
		t.Fatalf("upstream path=%q", path)
	}
	if q.Get("token") != "abc" {
		t.Fatalf("endpoint query not preserved: %v", q)
	}
	want := BuildImageParams(p)
	for k := range want {
		if q.Get(k) != want.Get(k) {
			t.Fatalf("param %q got %q want %q", k, q.Get(k), want.Get(k))
		}
	}
	if !strings.HasPrefix(hdr.Get("Accept"), "image/png") {
		t.Fatalf("unexpected Accept header: %q", hdr.Get("Accept"))
	}
}

func TestGetImage_UndecodableBodyStillReturned(t *testing.T) {
	up := &upstreamRecorder{ctype: "application/octet-stream", body: []byte("not an image")}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	img, err := newClient(t, srv.URL).GetImage(context.Background(), sampleParams())
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if string(img.Data) != "not an image" || img.Width != 0 || img.Height != 0 {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestGetImage_StatusError(t *testing.T) {
	up := &upstreamRecorder{status: http.StatusNotFound, body: []byte("collection not found")}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	img, err := newClient(t, srv.URL).GetImage(context.Background(), sampleParams())
	if img != nil {
		t.Fatalf("expected nil image, got %+v", img)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusNotFound || se.Body != "collection not found" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestGetImage_StatusErrorBodyTruncated(t *testing.T) {
	up := &upstreamRecorder{status: http.StatusInternalServerError, body: bytes.Repeat([]byte("x"), 20<<10)}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	_, err := newClient(t, srv.URL).GetImage(context.Background(), sampleParams())
	var se *StatusError
	if !errors.As(err, &se) || len(se.Body) != 8<<10 {
		t.Fatalf("expected body truncated to 8KiB, got err=%v", err)
	}
}

func TestGetImage_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv.URL).GetImage(ctx, sampleParams())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGetImage_ThroughFetcherPropagatesRejection(t *testing.T) {
	up := &upstreamRecorder{status: http.StatusBadRequest, body: []byte("unknown band")}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	c := newClient(t, srv.URL)
	f := imagery.NewFetcher(nil, c)
	_, err := f.FetchDatasetImage(context.Background(), "https://bad.test/collection.json", "NOPE",
		model.BBox{0, 0, 1, 1}, 10, 10, model.ColorMap{Max: 1})

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest || se.Body != "unknown band" {
		t.Fatalf("rejection not propagated as is: %T %v", err, err)
	}
	if calls, _, _, _ := up.snapshot(); calls != 1 {
		t.Fatalf("upstream calls=%d want 1", calls)
	}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New(nil, nil, "/render"); err == nil {
		t.Fatal("expected error for relative url")
	}
	if _, err := New(nil, nil, "http://[::1"); err == nil {
		t.Fatal("expected parse error")
	}
}
