// Package detection provides the geometric feature detectors used to locate
// identity cards and barcodes in photographs.
//
// This package works on binary images (edge maps or thresholded masks) produced
// by the imaging package and returns geometry in pixel coordinates.
//
// # Contours
//
// FindExternalContours groups foreground pixels into 8-connected regions with an
// iterative flood fill and describes each region by its convex outline. Regions
// nested inside a larger outline are dropped. The outline can then be measured
// (PolygonArea, ArcLength), simplified (ApproxPolyDP) or boxed (MinAreaRect).
//
// The rectifier uses these to find the four corners of a card; the back-side
// classifier uses them to find the wide, short block of a PDF417 barcode.
//
// # Line Segments
//
// DetectSegments runs a Hough transform over an edge map and traces each strong
// line back onto the image to recover finite segments, splitting at gaps. The
// rectifier uses the angles of near-horizontal segments to deskew text.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Angles are measured from the +X axis, positive toward +Y
//
// # Performance Considerations
//
// Detection iterates over every pixel and the Hough transform votes 180 times
// per edge pixel. Callers downscale photographs to roughly 1000-1200 pixels on
// the long side before detection and scale results back.
package detection
