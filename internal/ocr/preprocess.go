package ocr

import (
	"errors"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// errBlankFrame marks frames too uniform to hold any text.
var errBlankFrame = errors.New("blank frame")

// FrameStats are cheap luminance statistics of a frame, both in 0..1.
type FrameStats struct {
	Brightness    float64
	LumaDeviation float64
}

// MeasureFrame samples luminance on a grid to estimate brightness and contrast.
func MeasureFrame(img image.Image) FrameStats {
	bounds := img.Bounds()
	if bounds.Empty() {
		return FrameStats{}
	}

	stepX := max(1, bounds.Dx()/160)
	stepY := max(1, bounds.Dy()/160)

	var sum, sumSq, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)) / 255
			sum += lum
			sumSq += lum * lum
			n++
		}
	}

	mean := sum / n
	variance := math.Max(0, sumSq/n-mean*mean)
	return FrameStats{Brightness: mean, LumaDeviation: math.Sqrt(variance)}
}

// Preprocessor prepares frames for recognition: rescale into a legible width band,
// grayscale, contrast and sharpening.
type Preprocessor struct {
	config PreprocessConfig
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor(cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{config: cfg}
}

// Process writes a cleaned copy of the frame next to it and returns its path.
// Frames below MinLumaDeviation return errBlankFrame.
func (p *Preprocessor) Process(path string) (string, FrameStats, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", FrameStats{}, err
	}

	stats := MeasureFrame(img)
	if stats.LumaDeviation < p.config.MinLumaDeviation {
		return "", stats, errBlankFrame
	}

	if !p.config.Enabled {
		return path, stats, nil
	}

	width := img.Bounds().Dx()
	switch {
	case p.config.MinWidth > 0 && width < p.config.MinWidth:
		img = resize.Resize(uint(p.config.MinWidth), 0, img, resize.Lanczos3)
	case p.config.MaxWidth > 0 && width > p.config.MaxWidth:
		img = resize.Resize(uint(p.config.MaxWidth), 0, img, resize.Lanczos3)
	}

	out := imaging.Grayscale(img)
	if p.config.Contrast != 0 {
		out = imaging.AdjustContrast(out, p.config.Contrast)
	}
	if p.config.Sharpen > 0 {
		out = imaging.Sharpen(out, p.config.Sharpen)
	}

	dst := strings.TrimSuffix(path, filepath.Ext(path)) + "_prep.png"
	if err := imaging.Save(out, dst); err != nil {
		return "", stats, err
	}
	return dst, stats, nil
}
