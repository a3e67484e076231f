// Package content resolves the editor-owned content tree into entity graphs.
//
// Records live under a single root:
//
//	tags/{id}.json         {"slug": "...", "title": "..."}
//	works/{id}.md          front-matter + markdown body
//	index.json             {"title", "description", "image", "works": [{"work"}], "tags": [{"tag"}]}
//	categories/{id}.json   {"title": "..."}
//	items/{id}.md          front-matter + markdown body
//
// Every reference (tag ids, work ids, image paths) is resolved to an
// optional.Option first and collapsed with optional.Collect when a list is
// assembled, so a dangling reference shortens the list instead of failing the
// record. JSON records may contain comments and trailing commas.
package content
