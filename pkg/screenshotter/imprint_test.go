package screenshotter

import (
	"bytes"
	"image/png"
	"testing"
)

func TestAddTextToImage(t *testing.T) {
	img := Image(testPNG(t, 400, 200))

	out, err := img.AddTextToImage("http://localhost:3000")
	if err != nil {
		t.Fatalf("Failed to add text to image: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to decode imprinted image: %v", err)
	}

	if decoded.Bounds().Dx() != 400 {
		t.Errorf("Expected width 400, got %d", decoded.Bounds().Dx())
	}
	if decoded.Bounds().Dy() != 241 {
		t.Errorf("Expected height 241, got %d", decoded.Bounds().Dy())
	}
}

func TestAddTextToImageInvalid(t *testing.T) {
	if _, err := Image("not a png").AddTextToImage("x"); err == nil {
		t.Error("Expected an error for invalid image data")
	}
}
