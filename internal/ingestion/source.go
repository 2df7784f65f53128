package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/types"
)

// DefaultExtensions are the file extensions read by FolderSource.
var DefaultExtensions = []string{".txt", ".html", ".htm", ".eml"}

// FolderSource supplies the exported email files of a directory tree as source items.
type FolderSource struct {
	Root       string
	Extensions []string
}

// NewFolderSource creates a FolderSource over root with the default extensions.
func NewFolderSource(root string) *FolderSource {
	return &FolderSource{Root: root, Extensions: DefaultExtensions}
}

// Paths returns the matching file paths under the root, ordered by lowercase file name.
// Entries below the root that cannot be read are returned as SourceErrors and skipped;
// the error is non-nil only when the root itself cannot be walked.
func (s *FolderSource) Paths(ctx context.Context) ([]string, []*SourceError, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("source folder %s: %w", s.Root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("source folder %s: not a directory", s.Root)
	}

	w := &walker{ctx: ctx, source: s}
	if err := filepath.WalkDir(s.Root, w.visit); err != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", s.Root, err)
	}
	paths := w.paths

	sort.SliceStable(paths, func(i, j int) bool {
		a, b := strings.ToLower(filepath.Base(paths[i])), strings.ToLower(filepath.Base(paths[j]))
		if a != b {
			return a < b
		}
		return paths[i] < paths[j]
	})
	return paths, w.failures, nil
}

// Items reads every matching file. Unreadable files and folders are returned as
// SourceErrors and do not stop the walk; the returned error is non-nil only when the
// root folder itself cannot be walked.
func (s *FolderSource) Items(ctx context.Context) ([]types.SourceItem, []*SourceError, error) {
	paths, failures, err := s.Paths(ctx)
	if err != nil {
		return nil, nil, err
	}

	items := make([]types.SourceItem, 0, len(paths))
	for _, path := range paths {
		item, err := ReadItem(path)
		if err != nil {
			var srcErr *SourceError
			if !errors.As(err, &srcErr) {
				srcErr = &SourceError{Path: path, Message: "read failed", Cause: err}
			}
			failures = append(failures, srcErr)
			continue
		}
		items = append(items, item)
	}
	return items, failures, nil
}

// walker collects accepted paths and unreadable entries of one walk.
type walker struct {
	ctx      context.Context
	source   *FolderSource
	paths    []string
	failures []*SourceError
}

func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if ctxErr := w.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if path == w.source.Root {
			return err
		}
		if d != nil && d.IsDir() {
			w.failures = append(w.failures, &SourceError{Path: path, Message: "unreadable folder", Cause: err, Dir: true})
			return fs.SkipDir
		}
		w.failures = append(w.failures, &SourceError{Path: path, Message: "stat failed", Cause: err})
		return nil
	}
	if d.IsDir() || !w.source.accepts(path) {
		return nil
	}
	w.paths = append(w.paths, path)
	return nil
}

// ReadItem reads one exported email file into a source item.
func ReadItem(path string) (types.SourceItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.SourceItem{}, &SourceError{Path: path, Message: "stat failed", Cause: err}
	}

	var content string
	if strings.EqualFold(filepath.Ext(path), ".eml") {
		f, err := os.Open(path)
		if err != nil {
			return types.SourceItem{}, &SourceError{Path: path, Message: "open failed", Cause: err}
		}
		defer func() { _ = f.Close() }()
		content, err = ReadEML(f)
		if err != nil {
			return types.SourceItem{}, &SourceError{Path: path, Message: "invalid message", Cause: err}
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return types.SourceItem{}, &SourceError{Path: path, Message: "read failed", Cause: err}
		}
		content = DecodeText(data)
	}

	modified := info.ModTime()
	return types.SourceItem{
		Content:      content,
		DisplayName:  filepath.Base(path),
		Path:         path,
		LastModified: &modified,
	}, nil
}

func (s *FolderSource) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	exts := s.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
