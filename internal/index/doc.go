// Package index parses reference tables: the per-index metadata listing every
// archive's id, name hash, CRC, revision and file ids.
//
// Archives are kept sorted by id, enabling O(log n) lookups. Names are stored
// only as 32-bit hashes, so name lookups can collide; when two archives share
// a hash the one with the lower id wins.
package index
