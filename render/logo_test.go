package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 60, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestInspectLogo(t *testing.T) {
	logo, err := InspectLogo(testPNG(t, 200, 50))
	if err != nil {
		t.Fatalf("InspectLogo() error: %v", err)
	}
	if logo.Format != "png" || logo.Width != 200 || logo.Height != 50 {
		t.Errorf("logo = %s %dx%d", logo.Format, logo.Width, logo.Height)
	}
	if logo.MIMEType() != "image/png" || logo.fpdfType() != "PNG" {
		t.Errorf("types = %s %s", logo.MIMEType(), logo.fpdfType())
	}
}

func TestInspectLogoInvalid(t *testing.T) {
	if _, err := InspectLogo(nil); err == nil {
		t.Error("expected error for empty data")
	}
	if _, err := InspectLogo([]byte("not an image")); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestLogoFit(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH float64
	}{
		{200, 50, 50, 12.5},
		{100, 100, 25, 25},
		{50, 200, 6.25, 25},
	}
	for _, tt := range tests {
		l := &Logo{Width: tt.w, Height: tt.h}
		w, h := l.Fit(50, 25)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Fit(%dx%d) = %v x %v, want %v x %v", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}
