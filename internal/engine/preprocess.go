package engine

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// Preprocess decodes image bytes, resizes to targetSize x targetSize, and
// returns a float32 tensor in HWC layout with RGB channels scaled to [0,1],
// matching how the model was trained.
func Preprocess(imageBytes []byte, targetSize int) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := resize.Resize(uint(targetSize), uint(targetSize), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	inputData := make([]float32, height*width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			base := (y*width + x) * 3
			inputData[base] = float32(r) / 65535.0
			inputData[base+1] = float32(g) / 65535.0
			inputData[base+2] = float32(b) / 65535.0
		}
	}

	return inputData, nil
}
