// Package export merges a bake snapshot into a table file. The pipeline
// copies the source container stream by stream, hiding or removing the
// geometry the bakes replace, synthesizing primitives, materials and
// packmap textures for the bake results, patching the automation script,
// and recomputing the trailing integrity digest. The destination is built
// in memory and committed atomically; the source is never modified.
package export
