// Package imaging provides the file and encoding layer around the moon
// detection and enhancement pipeline: cached photo loading, metadata
// inspection, result encoding for transport, disk output, and the
// conservative global fallback used when detection confidence is too low to
// drive the confidence-gated pipeline.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward, matching the detect and
// enhance packages.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless and may be called concurrently on different images.
package imaging
