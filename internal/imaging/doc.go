// Package imaging implements chroma keying: it turns a solid-color
// background into transparency.
//
// A keying run has four stages, always in this order:
//
//  1. Color parsing: ParseKeyColor turns "#RRGGBB" into a KeyColor, and
//     KeyColor.Components lays it out in the image's channel order.
//  2. Mask building: BuildMask thresholds the euclidean RGB distance of every
//     pixel to the key color into a binary mask (0 keyed, 255 kept).
//  3. Refinement: Choke erodes the kept region, then Feather blurs the mask
//     edge into a soft alpha ramp.
//  4. Composition: Compose appends the mask as alpha and EncodePNG writes it.
//
// Pipeline.Process runs all four on encoded bytes; Pipeline.Key runs them on
// an already decoded Image.
//
// # Buffers
//
// Image and Mask are dense row-major buffers with explicit shape. Image also
// records its ChannelOrder; decoding always produces RGB, and Image.Reorder is
// the only way to change the order. Neither type is modified by any operation
// in this package: each stage allocates its output.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward.
//
// # Thread Safety
//
// All functions are safe for concurrent use on distinct or shared inputs,
// since inputs are never written. ImageCache is safe for concurrent use.
// Large per-row loops are split across CPUs internally.
//
// # Error Handling
//
// Every error wraps one of ErrInvalidColorFormat, ErrImageDecode,
// ErrInvalidDimensions, ErrDimensionMismatch, ErrResourceExhaustion or
// ErrInvalidParameter; use errors.Is to classify. No stage returns partial
// output.
package imaging
