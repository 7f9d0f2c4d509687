package jagcache

import (
	"iter"
	"slices"
)

// FSFile is one file of an archive.
type FSFile struct {
	ID       int
	NameHash int32
	Contents []byte
}

// ArchiveFiles is the ordered set of files split out of one archive.
type ArchiveFiles struct {
	index   int
	archive int
	files   []*FSFile
}

// Index returns the id of the index the files came from.
func (f *ArchiveFiles) Index() int { return f.index }

// Archive returns the id of the archive the files came from.
func (f *ArchiveFiles) Archive() int { return f.archive }

// Len returns the number of files.
func (f *ArchiveFiles) Len() int { return len(f.files) }

// Files returns the files in declaration order.
func (f *ArchiveFiles) Files() []*FSFile {
	return slices.Clone(f.files)
}

// All returns an iterator over the files in declaration order.
func (f *ArchiveFiles) All() iter.Seq[*FSFile] {
	return slices.Values(f.files)
}

// FindFile returns the file with the given id.
func (f *ArchiveFiles) FindFile(id int) (*FSFile, bool) {
	i, ok := slices.BinarySearchFunc(f.files, id, func(file *FSFile, id int) int {
		return file.ID - id
	})
	if !ok {
		return nil, false
	}
	return f.files[i], true
}

// FindFileByName returns the first file whose name hashes like name.
func (f *ArchiveFiles) FindFileByName(name string) (*FSFile, bool) {
	h := NameHash(name)
	for _, file := range f.files {
		if file.NameHash == h {
			return file, true
		}
	}
	return nil, false
}
