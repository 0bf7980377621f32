package rimage

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// DepthUnitsPerMeter is the fixed-point scale of stored depth images, 0.1mm per unit.
const DepthUnitsPerMeter = 10000

// EncodeDepthValue converts a depth in meters to its stored 16 bit form: fixed point scaled by
// DepthUnitsPerMeter, truncated, then rotated left by 3 bits. Depths outside the representable
// range saturate: negative and NaN depths become 0, far depths become the maximum value.
func EncodeDepthValue(depth float32) uint16 {
	scaled := float64(depth) * DepthUnitsPerMeter
	var v uint16
	switch {
	case math.IsNaN(scaled) || scaled <= 0:
		v = 0
	case scaled >= math.MaxUint16:
		v = math.MaxUint16
	default:
		v = uint16(scaled)
	}
	return v>>13 | v<<3
}

// DecodeDepthValue inverts EncodeDepthValue.
func DecodeDepthValue(v uint16) float32 {
	v = v<<13 | v>>3
	return float32(v) / DepthUnitsPerMeter
}

// DecodeDepth reads a 16 bit grayscale png into a depth map in meters.
func DecodeDepth(r io.Reader) (*DepthMap, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decoding depth png")
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, errors.Errorf("depth png must be 16 bit grayscale, got %T", img)
	}
	b := gray.Bounds()
	dm := NewEmptyDepthMap(b.Dx(), b.Dy())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			dm.Set(x, y, DecodeDepthValue(gray.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
		}
	}
	return dm, nil
}

// EncodeDepth writes the depth map as a 16 bit grayscale png.
func EncodeDepth(dm *DepthMap, w io.Writer) error {
	gray := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			gray.SetGray16(x, y, color.Gray16{Y: EncodeDepthValue(dm.GetDepth(x, y))})
		}
	}
	return png.Encode(w, gray)
}

// ReadDepthPNG reads a depth image from the given path.
func ReadDepthPNG(path string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return DecodeDepth(bufio.NewReader(f))
}

// WriteDepthPNG writes a depth image to the given path, replacing any existing file.
func WriteDepthPNG(dm *DepthMap, path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := EncodeDepth(dm, w); err != nil {
		return err
	}
	return w.Flush()
}
