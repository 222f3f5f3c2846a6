// Package imaging provides the pixel-level primitives used to normalise photographs
// of identity cards before text recognition.
//
// This package implements grayscale conversion, filtering (Gaussian blur, Laplacian,
// Scharr gradients, sharpening, denoising), thresholding (global Otsu, adaptive
// Gaussian), local contrast enhancement (CLAHE), morphology, perspective warping,
// rotation, resizing, clamped cropping and debug overlays. All operations accept
// standard Go image.Image values and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Grayscale and Binary Images
//
// Filters operate on *image.Gray with origin (0,0). ToGray converts any image using
// ITU-R BT.601 luminance weights. Binary images are *image.Gray holding only 0 and 255.
// Floating-point responses (Laplacian, gradients) are returned as [][]float64 indexed
// [y][x] so that negative values survive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their inputs.
//
// # Libraries
//
// Resizing, cropping and quarter-turn rotations use github.com/disintegration/imaging.
// Blur, morphology, median filtering, convolution, binarisation, histograms and free
// rotation use github.com/anthonynsimon/bild.
package imaging
