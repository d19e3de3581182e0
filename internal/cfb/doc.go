// Package cfb reads and writes the compound binary container holding a
// table: one file acting as a mini filesystem of storages and named streams.
//
// The reader parses version 3 and version 4 containers (512 and 4096 byte
// sectors) into memory and resolves streams by slash-joined path, for
// example "GameStg/GameData". The writer stages streams in memory and emits
// a fresh version 3 container on Commit; the commit is atomic, writing a
// temporary sibling file and renaming it into place, so no reader can
// observe a partially written destination.
package cfb
