// Package pipeline wires the content resolver, the image engine and the build
// cache into the read API that page builders consume. Collections are served
// through the build cache; single entities are looked up inside the cached
// collection so that one build never mixes two snapshots of the content tree.
package pipeline
