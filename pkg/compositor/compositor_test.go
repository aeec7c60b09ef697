package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/xob0t/instapost/pkg/layout"
)

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func within(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func sameRGB(got color.RGBA, want color.NRGBA, tol int) bool {
	return within(got.R, want.R, tol) && within(got.G, want.G, tol) && within(got.B, want.B, tol)
}

var photoColor = color.NRGBA{200, 100, 50, 255}

func TestDrawWithoutCaptionIsPhotoOnly(t *testing.T) {
	c := newCompositor(t)
	img, err := c.Draw(Input{
		Canvas: layout.CanvasSpec{Width: 108, Height: 144, Background: "#000000"},
		Image:  uniform(200, 100, photoColor),
		Place:  DefaultPlacement,
		Text:   Caption{Content: "   ", FontSize: 20, Vertical: 50},
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for y := 0; y < 144; y++ {
		for x := 0; x < 108; x++ {
			if got := img.RGBAAt(x, y); !sameRGB(got, photoColor, 1) {
				t.Fatalf("pixel (%d,%d) = %v, want photo color %v", x, y, got, photoColor)
			}
		}
	}
}

func TestDrawCaptionBand(t *testing.T) {
	c := newCompositor(t)
	img, err := c.Draw(Input{
		Canvas: layout.CanvasSpec{Width: 360, Height: 480},
		Image:  uniform(360, 480, photoColor),
		Place:  DefaultPlacement,
		Text:   Caption{Content: "hello world", FontSize: 24, Vertical: 50, Align: layout.AlignCenter, Color: "#ffffff"},
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// One line: block top = 240 - 14.4, band spans 205.6 .. 274.4.
	inBand := img.RGBAAt(5, 210)
	if !within(inBand.R, 100, 5) || !within(inBand.G, 50, 5) {
		t.Fatalf("band pixel = %v, want photo darkened by half", inBand)
	}
	for _, y := range []int{100, 300} {
		if got := img.RGBAAt(5, y); !sameRGB(got, photoColor, 1) {
			t.Fatalf("pixel (5,%d) = %v, want untouched photo", y, got)
		}
	}

	// Some caption pixel near the center line is bright.
	bright := false
	for x := 100; x < 260 && !bright; x++ {
		for y := 225; y < 255; y++ {
			if p := img.RGBAAt(x, y); p.R > 240 && p.G > 240 && p.B > 240 {
				bright = true
				break
			}
		}
	}
	if !bright {
		t.Fatal("no caption pixels found")
	}
}

func TestDrawLayerOrder(t *testing.T) {
	c := newCompositor(t)

	mockup := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	mockupColor := color.NRGBA{0, 0, 255, 255}
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			mockup.SetNRGBA(x, y, mockupColor)
		}
	}

	img, err := c.Draw(Input{
		Canvas: layout.CanvasSpec{Width: 100, Height: 100},
		Image:  uniform(50, 50, photoColor),
		Place:  DefaultPlacement,
		Mockup: mockup,
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := img.RGBAAt(50, 10); !sameRGB(got, mockupColor, 1) {
		t.Fatalf("top = %v, want mockup over photo", got)
	}
	if got := img.RGBAAt(50, 90); !sameRGB(got, photoColor, 1) {
		t.Fatalf("bottom = %v, want photo through transparent mockup", got)
	}
}

func TestDrawFitLetterboxes(t *testing.T) {
	c := newCompositor(t)
	bg := color.NRGBA{0x10, 0x20, 0x30, 255}
	img, err := c.Draw(Input{
		Canvas: layout.CanvasSpec{Width: 100, Height: 200, Background: "#102030"},
		Image:  uniform(200, 100, photoColor),
		Place:  Placement{Zoom: 100, X: 50, Y: 50, Fill: layout.Fit},
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	// Photo is 100x50 centered: rows 75..125.
	if got := img.RGBAAt(50, 10); !sameRGB(got, bg, 0) {
		t.Fatalf("letterbox = %v, want background", got)
	}
	if got := img.RGBAAt(50, 100); !sameRGB(got, photoColor, 1) {
		t.Fatalf("center = %v, want photo", got)
	}
}

func TestDrawPannedOffCanvas(t *testing.T) {
	c := newCompositor(t)
	img, err := c.Draw(Input{
		Canvas: layout.CanvasSpec{Width: 100, Height: 100, Background: "#000000"},
		Image:  uniform(100, 100, photoColor),
		Place:  Placement{Zoom: 100, X: 200, Y: 50, Fill: layout.Fill},
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := img.RGBAAt(50, 50); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("pixel = %v, want background only", got)
	}
}

func TestDrawWithoutPhoto(t *testing.T) {
	c := newCompositor(t)
	res, err := c.Render(Input{Canvas: layout.DefaultCanvas, Place: DefaultPlacement})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.HasImage {
		t.Fatal("HasImage = true without a photo")
	}
	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1440 {
		t.Fatalf("bounds = %v, want 1080x1440", b)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	c := newCompositor(t)
	in := Input{
		Canvas: layout.CanvasSpec{Width: 216, Height: 288},
		Image:  uniform(300, 200, photoColor),
		Place:  Placement{Zoom: 130, X: 40, Y: 60, Fill: layout.Fill},
		Text:   Caption{Content: "Same input same output", FontSize: 18, Vertical: 70, Align: layout.AlignLeft, Color: "#ffcc00"},
	}
	a, err := c.Render(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Render(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatal("identical inputs rendered differently")
	}
	if a.ContentType != "image/jpeg" || a.Width != 216 || a.Height != 288 {
		t.Fatalf("result metadata = %+v", a)
	}
}

func TestDrawRejectsInvalidInput(t *testing.T) {
	c := newCompositor(t)
	tests := []struct {
		name string
		in   Input
	}{
		{"zero canvas", Input{Canvas: layout.CanvasSpec{}}},
		{"zero zoom", Input{Canvas: layout.CanvasSpec{Width: 10, Height: 10}, Image: uniform(4, 4, photoColor), Place: Placement{}}},
		{"zero font", Input{Canvas: layout.CanvasSpec{Width: 10, Height: 10}, Text: Caption{Content: "x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Draw(tc.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
