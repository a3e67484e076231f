// Package cache defines the disk-backed store behind every persisted artifact:
// collection envelopes (<root>/<key>.json), image metadata
// (<root>/images/<id>/data.json) and thumbnails (<root>/images/<id>/<w>x<h>.<fmt>).
// Writes go through a temp file + rename so concurrent build workers sharing a
// directory never observe partial files; directory creation is idempotent.
// Tiers pairs the durable cache store with the per-build static output store
// and implements the copy-on-demand promotion between them.
package cache
