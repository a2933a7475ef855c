// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	RenderURL       string
	UpstreamTimeout time.Duration
	ImageWidth      int
	ImageHeight     int
	HintRadiusKm    float64
	RandomSeed      uint64
	CellRes         int
	Metrics         MetricsCfg
}

func FromEnv() Config {
	width := getint("IMAGE_WIDTH", 512)
	height := getint("IMAGE_HEIGHT", width)
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = width
	}

	radius := getfloat("HINT_RADIUS_KM", 500)
	if radius <= 0 {
		radius = 500
	}

	res := getint("CELL_RES", 5)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		RenderURL:       getenv("RENDER_URL", "http://localhost:8080/render/image"),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 30*time.Second),
		ImageWidth:      width,
		ImageHeight:     height,
		HintRadiusKm:    radius,
		RandomSeed:      getuint64("RANDOM_SEED", 0),
		CellRes:         res,
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getuint64(k string, def uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
