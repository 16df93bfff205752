package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Upload limits
const (
	// MaxUploadWidth bounds the width of an uploaded image before analysis.
	MaxUploadWidth = 1280
	// MaxCompareWidth bounds each image of a comparison pair.
	MaxCompareWidth = 640
	// MaxUploadBytes caps the encoded size accepted by ReadImage.
	MaxUploadBytes = 32 << 20
)

var (
	// ErrUnsupportedImage is returned when no decoder recognizes the data.
	ErrUnsupportedImage = errors.New("unsupported image data")
	// ErrImageTooLarge is returned when encoded data exceeds MaxUploadBytes.
	ErrImageTooLarge = fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
)

// ReadUpload reads at most MaxUploadBytes of encoded image data from r.
// Anything longer is rejected with ErrImageTooLarge rather than truncated.
func ReadUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// ReadImage reads an encoded image from r and decodes it with Decode.
func ReadImage(r io.Reader, maxWidth int) (gocv.Mat, error) {
	data, err := ReadUpload(r)
	if err != nil {
		return gocv.Mat{}, err
	}
	return Decode(data, maxWidth)
}

// Decode turns encoded image bytes into a BGR Mat no wider than maxWidth
// (0 keeps the original size). OpenCV is tried first; formats its build
// cannot read are decoded in Go and converted.
func Decode(data []byte, maxWidth int) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, ErrUnsupportedImage
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		defer mat.Close()
		return Downscale(mat, maxWidth), nil
	}
	if err == nil {
		mat.Close()
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return ImageToMat(ScaleImage(img, maxWidth))
}

// ImageToMat converts a Go image to a 3-channel BGR Mat.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert image: %w", err)
	}
	return mat, nil
}

// scaledSize keeps the aspect ratio while limiting the width.
func scaledSize(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w, h
	}
	nh := int(float64(h)*float64(maxWidth)/float64(w) + 0.5)
	return maxWidth, max(1, nh)
}

// Downscale returns a copy of src no wider than maxWidth. The caller owns
// the result.
func Downscale(src gocv.Mat, maxWidth int) gocv.Mat {
	w, h := scaledSize(src.Cols(), src.Rows(), maxWidth)
	if w == src.Cols() {
		return src.Clone()
	}

	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	return dst
}

// ScaleImage is Downscale for Go images.
func ScaleImage(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	w, h := scaledSize(b.Dx(), b.Dy(), maxWidth)
	if w == b.Dx() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
