// Package plane provides the dense floating-point raster primitives the
// detection and enhancement pipelines operate on.
//
// A Plane is a width×height grid of float64 samples in row-major order.
// Luma planes hold values in [0,1]; chroma planes may hold signed values.
// A Mask is the same grid restricted to [0,1] and treated as immutable once
// produced — resizing a mask always allocates a new buffer.
//
// The package also carries the shared convolution machinery: separable box
// and Gaussian blurs, Sobel gradient magnitude, and a process-wide memoized
// kernel cache. All operations are single-threaded and deterministic; the
// kernel cache is the only shared mutable state and is guarded by a single
// read-write lock so concurrent pipeline runs on different images can share
// precomputed weights safely.
//
// Everything here is implemented directly over float64 samples rather than
// through an image-processing library. The iterative restoration math
// (Richardson–Lucy in particular) is sensitive to quantization: routing
// planes through 8-bit image.Image intermediates would break both the
// determinism contract and the boundedness properties the stages are tested
// against.
package plane
