package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Canvas != DefaultCanvas() {
		t.Fatalf("Canvas = %+v, want %+v", cfg.Canvas, DefaultCanvas())
	}
}

func TestLoad_CanvasOverrides(t *testing.T) {
	t.Setenv("CANVAS_MAX_LAYERS", "25")
	t.Setenv("CANVAS_ERASER_TOLERANCE", "4.5")
	t.Setenv("CANVAS_PREVIEW_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Canvas.MaxLayers != 25 {
		t.Fatalf("MaxLayers = %d, want 25", cfg.Canvas.MaxLayers)
	}
	if cfg.Canvas.EraserTolerance != 4.5 {
		t.Fatalf("EraserTolerance = %v, want 4.5", cfg.Canvas.EraserTolerance)
	}

	c, err := LoadCanvas()
	if err != nil {
		t.Fatalf("LoadCanvas() error = %v", err)
	}
	if c.PreviewTimeout != 2*time.Second {
		t.Fatalf("PreviewTimeout = %v, want 2s", c.PreviewTimeout)
	}
	if c.HoverPadding != 5 {
		t.Fatalf("HoverPadding = %v, want default 5", c.HoverPadding)
	}
}

func TestLoad_RejectsBadValue(t *testing.T) {
	t.Setenv("CANVAS_MAX_LAYERS", "many")
	if _, err := LoadCanvas(); err == nil {
		t.Fatal("LoadCanvas() error = nil, want parse error")
	}
}
