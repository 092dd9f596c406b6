package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Logo is a decoded-header view of an uploaded logo image.
type Logo struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// InspectLogo reads the image header to learn format and pixel size.
func InspectLogo(data []byte) (*Logo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty logo")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding logo header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("logo has no area: %dx%d", cfg.Width, cfg.Height)
	}
	return &Logo{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Fit scales the logo proportionally into a maxW x maxH box.
func (l *Logo) Fit(maxW, maxH float64) (w, h float64) {
	ratio := float64(l.Width) / float64(l.Height)
	w, h = maxW, maxW/ratio
	if h > maxH {
		h = maxH
		w = maxH * ratio
	}
	return w, h
}

// MIMEType of the logo for data URLs.
func (l *Logo) MIMEType() string {
	return "image/" + l.Format
}

// fpdfType is the image type name the PDF writer expects.
func (l *Logo) fpdfType() string {
	switch l.Format {
	case "jpeg":
		return "JPG"
	case "gif":
		return "GIF"
	default:
		return "PNG"
	}
}
