// Package jagcache provides read access to a jagex cache: the sector-chained
// archive store a game client keeps its assets in.
//
// A store consists of:
//   - main_file_cache.dat2: an arena of 520-byte sectors holding archive data
//   - main_file_cache.idxN: per-index tables locating each archive's first sector
//   - main_file_cache.idx255: the reference tables describing every other index
//
// Every archive is wrapped in a container envelope (optionally compressed and
// encrypted) and, when it declares more than one file, packs its files as a
// group with a trailing size table.
//
// Typical use:
//
//	s, err := jagcache.Open(dir)
//	...
//	defer s.Close()
//	if err := s.Load(ctx); err != nil { ... }
//	files, err := s.Files(int(jagcache.IndexConfigs), int(jagcache.ConfigVarbit))
//
// Decoding records out of files is the job of the definition and sound
// packages. The store is read-only and safe for concurrent use once loaded.
package jagcache
