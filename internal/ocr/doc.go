// Package ocr provides Optical Character Recognition (OCR) functionality using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) to read short
// fields from identity card crops, and the tesseract command line for page
// orientation detection.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-spa tesseract-ocr-osd
//   - macOS: brew install tesseract tesseract-lang
//
// The Spanish model ("spa") is the default language. Orientation detection also
// needs osd.traineddata. A custom tessdata directory can be set through
// Options.TessdataPrefix.
//
// # Functions
//
//   - Engine.Recognize: OCR one image with a page segmentation mode and whitelist
//   - Engine.DetectRotation: find the quarter turn that makes text upright
//   - Engine.Info: report library version and installed languages
//
// # Concurrency
//
// A fresh gosseract client is created for every call, so one Engine can serve
// concurrent requests.
//
// # Error Handling
//
// Functions return errors for:
//   - Unsupported language codes or missing training data
//   - Tesseract initialization failures
//   - A missing tesseract executable (orientation detection only)
//
// Callers in the extraction pipeline treat OCR errors as empty text rather than
// failing the whole request.
package ocr
