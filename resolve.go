package main

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// mapping request paths to files under the root folder

type targetKind int

const (
	Missing targetKind = iota
	File
	Directory

	// Forbidden is something that exists but must not be served: a
	// symlink leading outside the root, or a device, socket, or pipe.
	Forbidden
)

func (k targetKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case File:
		return "file"
	case Directory:
		return "directory"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// A resolvedTarget is the filesystem object a request path refers to.
type resolvedTarget struct {
	Path string
	Kind targetKind
}

// cleanRelative cleans a slash-separated relative path as if it were rooted,
// so that ".." elements can never climb above the root. The result has no
// leading or trailing slash, and is "" for the root itself.
func cleanRelative(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+rel), "/")
}

// resolveTarget joins rel to root and classifies what is there.
// root must be an absolute path with symlinks already evaluated.
// The returned Path is always inside root.
func resolveTarget(root, rel string) (resolvedTarget, error) {
	if filepath.Separator != '/' && strings.ContainsRune(rel, filepath.Separator) {
		return resolvedTarget{Path: root, Kind: Missing}, nil
	}

	t := resolvedTarget{
		Path: filepath.Join(root, filepath.FromSlash(cleanRelative(rel))),
	}

	fi, err := os.Stat(t.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			t.Kind = Missing
			return t, nil
		}
		return t, errors.Wrap(err, "resolving request path")
	}

	canonical, err := filepath.EvalSymlinks(t.Path)
	if err != nil {
		return t, errors.Wrap(err, "resolving request path")
	}
	if !within(root, canonical) {
		t.Kind = Forbidden
		return t, nil
	}

	switch mode := fi.Mode(); {
	case mode.IsDir():
		t.Kind = Directory
	case mode.IsRegular():
		t.Kind = File
	default:
		t.Kind = Forbidden
	}
	return t, nil
}

// within reports whether p is root or lies beneath it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
