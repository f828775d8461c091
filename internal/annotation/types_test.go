package annotation

import (
	"errors"
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF8000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("unexpected color %+v", c)
	}
	c, err = ParseHexColor("#0f0")
	if err != nil || c != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("short form: %+v err=%v", c, err)
	}
	for _, bad := range []string{"", "red", "#12", "#gg0000", "ff0000", "#ff00000"} {
		if _, err := ParseHexColor(bad); !errors.Is(err, ErrInvalidColor) {
			t.Fatalf("ParseHexColor(%q) err = %v, want ErrInvalidColor", bad, err)
		}
	}
}

func TestStyleHelpers(t *testing.T) {
	s := Style{Color: "nope", Bold: true}
	if s.Weight() != "bold" || (Style{}).Weight() != "normal" {
		t.Fatalf("unexpected weights")
	}
	if s.RGBA() != (color.RGBA{A: 255}) {
		t.Fatalf("invalid color should fall back to black, got %+v", s.RGBA())
	}
}
