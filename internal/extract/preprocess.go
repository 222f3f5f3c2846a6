package extract

import (
	"image"

	"github.com/ironsheep/ine-ocr-mcp/internal/imaging"
)

// Strategy names the preprocessing applied before recognition.
type Strategy string

const (
	// StrategyAdaptive is a Gaussian-weighted local threshold (block 15,
	// offset 8). Fast, and good for evenly lit single lines.
	StrategyAdaptive Strategy = "adaptive_threshold"
	// StrategyContrast is CLAHE (clip 2, 8x8 tiles), a sharpening kernel and
	// a global Otsu threshold. Compensates uneven lighting.
	StrategyContrast Strategy = "clahe_sharpen_otsu"
	// StrategyUpscale is a 1.5x cubic upscale, median denoise and Otsu.
	// Recovers small or noisy text at the cost of speed.
	StrategyUpscale Strategy = "upscale_denoise_otsu"
)

const (
	adaptiveBlock  = 15
	adaptiveOffset = 8
	claheClip      = 2.0
	claheTiles     = 8
	upscaleFactor  = 1.5
	denoiseRadius  = 1
)

// StrategyFor maps an attempt number to its strategy. Attempts below 1 use
// the first strategy and attempts beyond 3 repeat the last.
func StrategyFor(attempt int) Strategy {
	switch {
	case attempt <= 1:
		return StrategyAdaptive
	case attempt == 2:
		return StrategyContrast
	default:
		return StrategyUpscale
	}
}

// Preprocess binarises a grayscale crop with the strategy for attempt.
func Preprocess(g *image.Gray, attempt int) *image.Gray {
	switch StrategyFor(attempt) {
	case StrategyAdaptive:
		return imaging.AdaptiveGaussian(g, adaptiveBlock, adaptiveOffset)
	case StrategyContrast:
		enhanced := imaging.CLAHE(g, claheClip, claheTiles, claheTiles)
		return imaging.Otsu(imaging.Sharpen(enhanced))
	default:
		up := imaging.Upscale(g, upscaleFactor)
		return imaging.Otsu(imaging.Denoise(up, denoiseRadius))
	}
}
