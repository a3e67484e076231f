// Package images is the image derivation engine. It computes immutable
// metadata for source images (dimensions, dominant colour) and renders
// thumbnails into a two-tier store: a durable cache tier that survives across
// builds and a static output tier that is shipped and may be wiped per build.
//
// Everything is keyed by the content-addressed identity.ImageID, so metadata
// and thumbnails never need a staleness check and the codec work for one
// (id, width, height, format) tuple happens at most once per cache directory.
package images
