package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// RasterFormat selects the bitmap encoding of a rendered snapshot.
type RasterFormat string

const (
	FormatPNG  RasterFormat = "png"
	FormatJPEG RasterFormat = "jpeg"
)

// RasterOptions configures raster export. Quality applies to JPEG only.
type RasterOptions struct {
	Format  RasterFormat
	Quality int
}

// Renderer turns a snapshot into an encoded bitmap. The surface model never
// depends on a concrete rendering backend; any implementation that renders
// the snapshot tree deterministically can stand in.
type Renderer interface {
	Render(snap *Snapshot, opts RasterOptions) ([]byte, error)
}

type ggRenderer struct {
	face font.Face
}

const rasterFontSize = 16.0

// NewRenderer builds the default 2D renderer.
func NewRenderer() (Renderer, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, &InitializationError{Reason: fmt.Sprintf("parse font: %v", err)}
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    rasterFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &ggRenderer{face: face}, nil
}

func (r *ggRenderer) Render(snap *Snapshot, opts RasterOptions) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(snap.Width, snap.Height)
	dc.SetColor(parseHexColor(snap.Background, color.White))
	dc.Clear()
	dc.SetFontFace(r.face)

	for _, obj := range snap.Objects {
		r.drawObject(dc, obj)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case FormatPNG, "":
		if err := png.Encode(&buf, dc.Image()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported raster format %q", opts.Format)
	}
	return buf.Bytes(), nil
}

func (r *ggRenderer) drawObject(dc *gg.Context, obj *Object) {
	if obj.Kind == KindGroup {
		for _, child := range obj.Children {
			r.drawObject(dc, child)
		}
		return
	}

	rotated := obj.Geometry.Rotation != 0
	if rotated {
		b := obj.Bounds()
		dc.Push()
		dc.RotateAbout(obj.Geometry.Rotation, b.X+b.W/2, b.Y+b.H/2)
	}

	stroke := parseHexColor(obj.Style.Stroke, color.Black)
	fill := parseHexColor(obj.Style.Fill, color.Black)
	alpha := obj.Style.Opacity
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	stroke = scaleAlpha(stroke, alpha)
	fill = scaleAlpha(fill, alpha)
	width := obj.Style.StrokeWidth
	if width <= 0 {
		width = 2
	}

	switch obj.Kind {
	case KindPath:
		points := obj.Geometry.Points
		dc.MoveTo(points[0].X, points[0].Y)
		for _, p := range points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.Stroke()
	case KindLine:
		points := obj.Geometry.Points
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.DrawLine(points[0].X, points[0].Y, points[1].X, points[1].Y)
		dc.Stroke()
	case KindTriangle:
		points := obj.Geometry.Points
		dc.MoveTo(points[0].X, points[0].Y)
		dc.LineTo(points[1].X, points[1].Y)
		dc.LineTo(points[2].X, points[2].Y)
		dc.ClosePath()
		r.paintShape(dc, obj, fill, stroke, width)
	case KindRectangle:
		dc.DrawRectangle(obj.Geometry.X, obj.Geometry.Y, obj.Geometry.W, obj.Geometry.H)
		r.paintShape(dc, obj, fill, stroke, width)
	case KindCircle:
		g := obj.Geometry
		dc.DrawEllipse(g.X+g.W/2, g.Y+g.H/2, g.W/2, g.H/2)
		r.paintShape(dc, obj, fill, stroke, width)
	case KindText:
		dc.SetColor(textColor(obj, alpha))
		dc.DrawString(obj.Text, obj.Geometry.X, obj.Geometry.Y+rasterFontSize)
	case KindImage:
		r.drawImage(dc, obj, stroke, width)
	}

	if rotated {
		dc.Pop()
	}
}

// paintShape fills then strokes the current path, matching the usual
// shape styling of vector editors.
func (r *ggRenderer) paintShape(dc *gg.Context, obj *Object, fill, stroke color.Color, width float64) {
	if obj.Style.Fill != "" {
		dc.SetColor(fill)
		dc.FillPreserve()
	}
	if obj.Style.Stroke != "" || obj.Style.Fill == "" {
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.Stroke()
	} else {
		dc.ClearPath()
	}
}

// drawImage decodes an inline data URI and draws it scaled into the object
// bounds. A reference that cannot be decoded renders as an outlined box so
// the slide remains usable.
func (r *ggRenderer) drawImage(dc *gg.Context, obj *Object, stroke color.Color, width float64) {
	g := obj.Geometry
	img := decodeImageRef(obj.ImageRef)
	if img == nil {
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.DrawRectangle(g.X, g.Y, g.W, g.H)
		dc.Stroke()
		return
	}
	bounds := img.Bounds()
	dc.Push()
	dc.Translate(g.X, g.Y)
	dc.Scale(g.W/float64(bounds.Dx()), g.H/float64(bounds.Dy()))
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

func decodeImageRef(ref string) image.Image {
	const marker = ";base64,"
	idx := strings.Index(ref, marker)
	if !strings.HasPrefix(ref, "data:image/") || idx < 0 {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(ref[idx+len(marker):])
	if err != nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	return img
}

func textColor(obj *Object, alpha float64) color.Color {
	hex := obj.Style.Fill
	if hex == "" {
		hex = obj.Style.Stroke
	}
	return scaleAlpha(parseHexColor(hex, color.Black), alpha)
}

// parseHexColor parses #RGB, #RRGGBB and #RRGGBBAA strings, falling back
// to the given default on anything it cannot parse.
func parseHexColor(hex string, fallback color.Color) color.Color {
	if !strings.HasPrefix(hex, "#") {
		return fallback
	}
	digits := hex[1:]
	var r, g, b, a uint8
	a = 0xff
	switch len(digits) {
	case 3:
		r = hexNibble(digits[0]) * 0x11
		g = hexNibble(digits[1]) * 0x11
		b = hexNibble(digits[2]) * 0x11
	case 6:
		r = hexByte(digits[0], digits[1])
		g = hexByte(digits[2], digits[3])
		b = hexByte(digits[4], digits[5])
	case 8:
		r = hexByte(digits[0], digits[1])
		g = hexByte(digits[2], digits[3])
		b = hexByte(digits[4], digits[5])
		a = hexByte(digits[6], digits[7])
	default:
		return fallback
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

func hexNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func hexByte(hi, lo byte) uint8 {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func scaleAlpha(c color.Color, alpha float64) color.Color {
	if alpha >= 1 {
		return c
	}
	r, g, b, a := c.RGBA()
	return color.RGBA64{
		R: uint16(float64(r) * alpha),
		G: uint16(float64(g) * alpha),
		B: uint16(float64(b) * alpha),
		A: uint16(float64(a) * alpha),
	}
}
