// Package model defines core domain types shared across the service.
package model

import (
	"encoding/base64"
	"fmt"

	"github.com/paulmach/orb"
)

// ColorMap maps raw sensor values onto display colors.
// Values are passed to the imagery API as given.
type ColorMap struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Colors    string  `json:"colors,omitempty"`
	DeleteMin bool    `json:"deleteMin,omitempty"`
	DeleteMax bool    `json:"deleteMax,omitempty"`
	Log10     bool    `json:"log10,omitempty"`
	NanColor  string  `json:"nanColor,omitempty"`
}

type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Point returns the orb representation (lng, lat).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// BBox is [minLng, minLat, maxLng, maxLat] in degrees.
type BBox [4]float64

// String representation matching the render endpoint bbox format
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b[0], b[1], b[2], b[3])
}

func BBoxFromBound(bd orb.Bound) BBox {
	return BBox{bd.Min[0], bd.Min[1], bd.Max[0], bd.Max[1]}
}

// Image is the rendered raster returned by the imagery API.
// Width and Height are zero when the payload could not be sniffed.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// DataURL encodes the image as a data: URL, the form stored in a hint's ImgDataURL slot.
func (im *Image) DataURL() string {
	ct := im.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(im.Data)
}
