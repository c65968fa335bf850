// Package codec is the pixel decode/encode engine. It measures images,
// renders bounded previews, converts files to a target output format, and
// probes which output formats this process can encode.
//
// Decoding goes through the standard image registry (PNG, JPEG, GIF) extended
// with golang.org/x/image (WebP, BMP, TIFF), an ICO decoder, and an SVG
// rasterizer. Encoders are keyed by media type; a request for a type without
// an encoder produces PNG with a PNG media type, so callers that compare the
// declared type of the result against the request can detect the mismatch.
package codec
