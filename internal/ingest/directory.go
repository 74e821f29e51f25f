package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
)

// ScanDirectory walks root and returns the files whose extension is
// allowed, in lexical path order. Unreadable entries are reported with Err
// set and counted as failed; the walk continues past them.
func ScanDirectory(ctx context.Context, root string, opts ScanOptions) ([]FileEntry, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(opts.Exts)
	seen := map[string]string{}

	var entries []FileEntry
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			entries = append(entries, FileEntry{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matches(path, exts) {
			return nil
		}
		stats.Matched++

		entry := FileEntry{Path: path, Ext: constants.NormalizeExt(filepath.Ext(path))}
		if info, err := d.Info(); err == nil {
			entry.Size = info.Size()
		}
		if opts.Hash {
			sum, err := HashFile(path)
			if err != nil {
				entry.Err = err.Error()
				stats.Failed++
				entries = append(entries, entry)
				return nil
			}
			entry.HashHex = sum
			if _, dup := seen[sum]; dup {
				entry.Duplicate = true
				stats.Duplicates++
			} else {
				seen[sum] = path
			}
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return entries, stats, fmt.Errorf("walk: %w", err)
	}
	return entries, stats, nil
}
