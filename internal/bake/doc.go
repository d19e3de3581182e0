// Package bake defines the read-only snapshot of a bake run that the merge
// pipeline consumes: synthesized results, the source-table entities they
// replace, and the packmap textures they reference. A snapshot is produced
// by the baking toolchain and stored as a pack directory holding a CBOR
// descriptor plus one encoded image per packmap.
package bake
