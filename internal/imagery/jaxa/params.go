package jaxa

import (
	"net/url"
	"strconv"

	"github.com/geoquiz/hintkit/internal/core/model"
	"github.com/geoquiz/hintkit/internal/imagery"
)

// BuildImageParams encodes p as render endpoint query parameters.
// Optional color map flags are only sent when set.
func BuildImageParams(p imagery.Params) url.Values {
	params := url.Values{}
	params.Set("collection", p.Collection)
	params.Set("band", p.Band)
	params.Set("bbox", model.BBox(p.BBox).String())
	params.Set("width", strconv.Itoa(p.Width))
	params.Set("height", strconv.Itoa(p.Height))

	cm := p.ColorMap
	params.Set("min", formatFloat(cm.Min))
	params.Set("max", formatFloat(cm.Max))
	if cm.Colors != "" {
		params.Set("colors", cm.Colors)
	}
	if cm.DeleteMin {
		params.Set("deleteMin", "true")
	}
	if cm.DeleteMax {
		params.Set("deleteMax", "true")
	}
	if cm.Log10 {
		params.Set("log10", "true")
	}
	if cm.NanColor != "" {
		params.Set("nanColor", cm.NanColor)
	}
	return params
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
