// Package buildcache persists expensive, whole-collection computations as
// JSON envelopes of the form {"buildId": <discriminator>, "data": <T>} under
// the cache root, one file per logical key.
//
// A stored envelope is reused only when its discriminator equals the caller's
// current one. The discriminator is either the process-wide build id (one
// opaque token per build invocation, empty in interactive sessions) or a
// content fingerprint of the files that feed the collection. An empty
// discriminator never matches, so dev sessions always recompute. There is no
// per-entity staleness tracking: any change invalidates the whole collection.
//
// Above the disk layer each key is memoized in-process, so a key costs at most
// one disk lookup per process until Reset.
package buildcache
