// Package hints holds the read-only catalog of hint datasets and marker labels
// offered to quiz players.
package hints

import "github.com/geoquiz/hintkit/internal/core/model"

const collectionBase = "https://s3.ap-northeast-1.wasabisys.com/je-pds/cog/v1/"

// DatasetAPI identifies how a dataset is requested from the imagery API.
type DatasetAPI struct {
	Collection string  `json:"collection"`
	Band       string  `json:"band"`
	Colors     string  `json:"colors"`
	ColorMin   float64 `json:"colorMin"`
	ColorMax   float64 `json:"colorMax"`
}

// Dataset is one satellite product offered as a visual hint.
// ImgDataURL is always empty here; consumers fill their own copy after fetching.
type Dataset struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	API        DatasetAPI `json:"api"`
	ImgDataURL string     `json:"imgDataURL"`
}

// ColorMap derives the display color map for the dataset.
func (d Dataset) ColorMap() model.ColorMap {
	return model.ColorMap{
		Min:    d.API.ColorMin,
		Max:    d.API.ColorMax,
		Colors: d.API.Colors,
	}
}

var datasets = [...]Dataset{
	{
		Key:  "elevation",
		Name: "標高",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.EORC_ALOS.PRISM_AW3D30.v3.2_global/collection.json",
			Band:       "DSM",
			Colors:     "jet",
			ColorMin:   0,
			ColorMax:   6000,
		},
	},
	{
		Key:  "forest",
		Name: "森林",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.EORC_ALOS-2.PALSAR-2_FNF.v2.1.0_global_yearly/collection.json",
			Band:       "FNF",
			Colors:     "ndvi",
			ColorMin:   0,
			ColorMax:   3,
		},
	},
	{
		Key:  "land-surface-temperature",
		Name: "地表面温度",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.G-Portal_GCOM-C.SGLI_standard.L3-LST.daytime.v3_global_monthly/collection.json",
			Band:       "LST",
			Colors:     "jet",
			ColorMin:   250,
			ColorMax:   320,
		},
	},
	{
		Key:  "sea-surface-temperature",
		Name: "海面水温",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.G-Portal_GCOM-C.SGLI_standard.L3-SST.daytime.v3_global_monthly/collection.json",
			Band:       "SST",
			Colors:     "jet",
			ColorMin:   0,
			ColorMax:   30,
		},
	},
	{
		Key:  "precipitation",
		Name: "降水量",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.EORC_GSMaP_standard.Gauge.00Z-23Z.v6_monthly/collection.json",
			Band:       "PRECIP",
			Colors:     "jet",
			ColorMin:   0,
			ColorMax:   1,
		},
	},
	{
		Key:  "vegetation",
		Name: "植生指数",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.JASMES_Terra.MODIS-Aqua.MODIS_ndvi.v811_global_monthly/collection.json",
			Band:       "ndvi",
			Colors:     "ndvi",
			ColorMin:   0,
			ColorMax:   1,
		},
	},
	{
		Key:  "soil-moisture",
		Name: "土壌水分",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.G-Portal_GCOM-W.AMSR2_standard.L3-SMC.daytime.v3_global_monthly/collection.json",
			Band:       "SMC",
			Colors:     "smc",
			ColorMin:   0,
			ColorMax:   50,
		},
	},
	{
		Key:  "sea-ice",
		Name: "海氷密接度",
		API: DatasetAPI{
			Collection: collectionBase + "JAXA.G-Portal_GCOM-W.AMSR2_standard.L3-SIC.daytime.v3_global_monthly/collection.json",
			Band:       "SIC",
			Colors:     "ic",
			ColorMin:   0,
			ColorMax:   100,
		},
	},
}

var markerLabels = [...]string{
	"あ", "い", "う", "え", "お",
	"か", "き", "く", "け", "こ",
	"さ", "し", "す", "せ", "そ",
	"た", "ち", "つ", "て", "と",
	"な", "に", "ぬ", "ね", "の",
	"は", "ひ", "ふ", "へ", "ほ",
	"ま", "み", "む", "め", "も",
	"や", "ゆ", "よ",
	"ら", "り", "る", "れ", "ろ",
	"わ", "を", "ん",
}

// Datasets returns a copy of the catalog in display order.
func Datasets() []Dataset {
	out := make([]Dataset, len(datasets))
	copy(out, datasets[:])
	return out
}

func Lookup(key string) (Dataset, bool) {
	for _, d := range datasets {
		if d.Key == key {
			return d, true
		}
	}
	return Dataset{}, false
}

// MarkerLabels returns a copy of the marker labels in assignment order.
func MarkerLabels() []string {
	out := make([]string, len(markerLabels))
	copy(out, markerLabels[:])
	return out
}

// MarkerLabel returns the i-th label; ok is false past the end of the set.
func MarkerLabel(i int) (string, bool) {
	if i < 0 || i >= len(markerLabels) {
		return "", false
	}
	return markerLabels[i], true
}
