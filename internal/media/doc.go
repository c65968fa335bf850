// Package media defines the value types that flow between the selection
// layer, the decode/encode engine and the resource tracker: the typed file
// descriptor captured at selection time, encoded blobs, and pixel dimensions.
package media
