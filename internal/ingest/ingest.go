// Package ingest discovers input documents on the local filesystem.
package ingest

// FileEntry is one matched file.
type FileEntry struct {
	Path      string
	Ext       string
	Size      int64
	HashHex   string // sha256 of the content; set when hashing is enabled
	Duplicate bool   // same content as an earlier entry in the scan
	Err       string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Duplicates uint32
	Failed     uint32
}

type ScanOptions struct {
	// Exts limits the scan to these extensions; empty means constants.AllowedExtensions.
	Exts       []string
	SkipHidden bool
	// Hash computes content hashes and marks duplicate files.
	Hash bool
}
