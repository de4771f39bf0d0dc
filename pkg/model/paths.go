package model

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/bandage/pkg/core/status"
)

const (
	// NameFile holds the identity token of a release tree or a patch
	NameFile = "NAME"

	// VersionFile holds the version token of a release tree
	VersionFile = "VERSION"

	// VersionsFile holds the "<from> -> <to>" header of a patch
	VersionsFile = "VERSIONS"

	// ManifestFile holds the CHANGE manifest of a patch
	ManifestFile = "CHANGE.json"

	// AddDir is the payload tree for added paths
	AddDir = "add"

	// ReplaceDir is the payload tree for changed paths
	ReplaceDir = "replace"
)

// ToManifestPath converts a tree-relative OS path into its slash-separated manifest form
func ToManifestPath(rel string) string {
	return filepath.ToSlash(rel)
}

// FromManifestPath converts a manifest path into an OS path rooted at root.
//
// Paths that are absolute or would escape root are rejected.
func FromManifestPath(root, p string) (string, error) {
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(p)), nil
}

// ValidatePath checks that a manifest path is relative, clean and stays within its tree
func ValidatePath(p string) error {
	switch {
	case p == "" || p == ".":
		return status.ErrInvalidPath.WrapMessage("empty path")
	case strings.HasPrefix(p, "/") || filepath.IsAbs(p):
		return status.ErrInvalidPath.WrapMessage("%q is absolute", p)
	case path.Clean(p) != p:
		return status.ErrInvalidPath.WrapMessage("%q is not clean", p)
	case p == ".." || strings.HasPrefix(p, "../"):
		return status.ErrInvalidPath.WrapMessage("%q escapes the tree root", p)
	}
	return nil
}

// PayloadPath yields the location in a patch of the payload for an added or replaced path
func PayloadPath(dir, p string) string {
	return path.Join(dir, p)
}
