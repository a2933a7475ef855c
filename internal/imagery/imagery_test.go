package imagery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/geoquiz/hintkit/internal/core/model"
)

type recordingAPI struct {
	mu    sync.Mutex
	calls []Params
	img   *model.Image
	err   error
}

func (r *recordingAPI) GetImage(_ context.Context, p Params) (*model.Image, error) {
	r.mu.Lock()
	r.calls = append(r.calls, p)
	r.mu.Unlock()
	return r.img, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchDatasetImage_PassThrough(t *testing.T) {
	want := &model.Image{Data: []byte("png-bytes"), ContentType: "image/png", Width: 4, Height: 2}
	api := &recordingAPI{img: want}
	f := NewFetcher(testLogger(), api)

	cm := model.ColorMap{Min: -2, Max: 35, Colors: "jet", DeleteMin: true, Log10: true, NanColor: "#000000"}
	bbox := model.BBox{120, 20, 150, 46}
	got, err := f.FetchDatasetImage(context.Background(), "https://example.test/c/collection.json", "LST", bbox, 640, 480, cm)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != want {
		t.Fatalf("image was not returned unchanged: got %p want %p", got, want)
	}
	if len(api.calls) != 1 {
		t.Fatalf("api calls=%d want 1", len(api.calls))
	}
	wantParams := Params{
		Collection: "https://example.test/c/collection.json",
		Band:       "LST",
		BBox:       [4]float64{120, 20, 150, 46},
		Width:      640,
		Height:     480,
		ColorMap:   cm,
	}
	if api.calls[0] != wantParams {
		t.Fatalf("params mismatch\n got: %+v\nwant: %+v", api.calls[0], wantParams)
	}
}

func TestFetchDatasetImage_NoValidation(t *testing.T) {
	api := &recordingAPI{img: &model.Image{}}
	f := NewFetcher(nil, api)

	// inverted bbox, zero size and inverted color range go through untouched
	bbox := model.BBox{10, 10, -10, -10}
	cm := model.ColorMap{Min: 5, Max: -5, Colors: "not-a-scheme"}
	if _, err := f.FetchDatasetImage(context.Background(), "", "", bbox, 0, 0, cm); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := api.calls[0]; got.BBox != [4]float64(bbox) || got.ColorMap != cm || got.Width != 0 {
		t.Fatalf("params were altered: %+v", got)
	}
}

type apiError struct{ code int }

func (e *apiError) Error() string { return "rejected" }

func TestFetchDatasetImage_ErrorUnchanged(t *testing.T) {
	apiErr := &apiError{code: 404}
	api := &recordingAPI{err: apiErr}
	f := NewFetcher(testLogger(), api)

	img, err := f.FetchDatasetImage(context.Background(), "https://bad.test/collection.json", "X", model.BBox{}, 1, 1, model.ColorMap{})
	if img != nil {
		t.Fatalf("expected nil image, got %+v", img)
	}
	if err != error(apiErr) {
		t.Fatalf("error was transformed: %v (%T)", err, err)
	}
	var target *apiError
	if !errors.As(err, &target) || target.code != 404 {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestFetchDatasetImage_RepeatedCallsAreIndependent(t *testing.T) {
	api := &recordingAPI{img: &model.Image{}}
	f := NewFetcher(testLogger(), api)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.FetchDatasetImage(context.Background(), "c", "b", model.BBox{0, 0, 1, 1}, 8, 8, model.ColorMap{Max: 1})
		}()
	}
	wg.Wait()
	if len(api.calls) != 5 {
		t.Fatalf("api calls=%d want 5", len(api.calls))
	}
}

func TestRequestKey(t *testing.T) {
	base := BuildParams("c", "b", model.BBox{0, 0, 1, 1}, 8, 8, model.ColorMap{Max: 1})
	if RequestKey(base) != RequestKey(base) {
		t.Fatal("key not stable")
	}
	other := base
	other.ColorMap.Log10 = true
	if RequestKey(base) == RequestKey(other) {
		t.Fatal("color map change did not change key")
	}
	other = base
	other.BBox[2] = 1.5
	if RequestKey(base) == RequestKey(other) {
		t.Fatal("bbox change did not change key")
	}
}
