package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	PublicURL      string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	Canvas         Canvas `envconfig:"CANVAS"`
}

// Canvas holds the interaction limits and tuning of the canvas engine.
type Canvas struct {
	MaxLayers          int           `envconfig:"MAX_LAYERS" default:"1000"`
	SelectionThreshold float64       `envconfig:"SELECTION_THRESHOLD" default:"5"`
	HoverPadding       float64       `envconfig:"HOVER_PADDING" default:"5"`
	EraserTolerance    float64       `envconfig:"ERASER_TOLERANCE" default:"12"`
	PasteGap           float64       `envconfig:"PASTE_GAP" default:"32"`
	MinLayerSize       float64       `envconfig:"MIN_LAYER_SIZE" default:"10"`
	MinScale           float64       `envconfig:"MIN_SCALE" default:"0.1"`
	MaxScale           float64       `envconfig:"MAX_SCALE" default:"4"`
	ZoomStep           float64       `envconfig:"ZOOM_STEP" default:"0.1"`
	MaxTextLength      int           `envconfig:"MAX_TEXT_LENGTH" default:"10000"`
	HistoryLimit       int           `envconfig:"HISTORY_LIMIT" default:"100"`
	ViewportWidth      float64       `envconfig:"VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight     float64       `envconfig:"VIEWPORT_HEIGHT" default:"720"`
	PreviewTimeout     time.Duration `envconfig:"PREVIEW_TIMEOUT" default:"10s"`
	UploadTimeout      time.Duration `envconfig:"UPLOAD_TIMEOUT" default:"30s"`
	MinFontSize        float64       `envconfig:"MIN_FONT_SIZE" default:"12"`
	DefaultPenSize     float64       `envconfig:"DEFAULT_PEN_SIZE" default:"16"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadCanvas reads only the CANVAS_ block.
func LoadCanvas() (Canvas, error) {
	var c Canvas
	if err := envconfig.Process("CANVAS", &c); err != nil {
		return Canvas{}, err
	}
	return c, nil
}

// DefaultCanvas returns the canvas settings with every default applied and
// no environment lookups.
func DefaultCanvas() Canvas {
	return Canvas{
		MaxLayers:          1000,
		SelectionThreshold: 5,
		HoverPadding:       5,
		EraserTolerance:    12,
		PasteGap:           32,
		MinLayerSize:       10,
		MinScale:           0.1,
		MaxScale:           4,
		ZoomStep:           0.1,
		MaxTextLength:      10000,
		HistoryLimit:       100,
		ViewportWidth:      1280,
		ViewportHeight:     720,
		PreviewTimeout:     10 * time.Second,
		UploadTimeout:      30 * time.Second,
		MinFontSize:        12,
		DefaultPenSize:     16,
	}
}
