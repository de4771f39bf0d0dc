package core

import (
	"context"
	"os"
	"path/filepath"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/model"
)

// DiffResult partitions the paths of two release trees.
//
// Paths are tree-relative and slash-separated. Every file of either tree is
// listed. Directories present in both trees are traversed and not listed
// themselves. A directory present in only one tree is listed, followed by its
// whole content. A path that is a file in one tree and a directory in the other
// is changed, and the content of the directory side is removed or added.
type DiffResult struct {
	Removed   []string `json:"remove" yaml:"remove"`
	Added     []string `json:"add" yaml:"add"`
	Unchanged []string `json:"keep" yaml:"keep"`
	Changed   []string `json:"replace" yaml:"replace"`
}

// IsEmpty tells if both trees have the same content
func (d DiffResult) IsEmpty() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0 && len(d.Changed) == 0
}

// Manifest builds the CHANGE manifest for this difference
func (d DiffResult) Manifest() model.Manifest {
	return model.Manifest{
		Remove:  d.Removed,
		Add:     d.Added,
		Keep:    d.Unchanged,
		Replace: d.Changed,
	}
}

type entryKind uint8

const (
	kindFile entryKind = iota + 1
	kindDir
)

// DiffTrees compares the content of two release trees
func DiffTrees(ctx context.Context, oldRoot, newRoot string, opts ...Option) (DiffResult, error) {
	s := newSettings(opts)
	return diffTrees(ctx, s.fs, oldRoot, newRoot, s.l)
}

func diffTrees(ctx context.Context, fs afero.Fs, oldRoot, newRoot string, l *zap.Logger) (DiffResult, error) {
	oldEntries, err := scanTree(ctx, fs, oldRoot)
	if err != nil {
		return DiffResult{}, err
	}
	newEntries, err := scanTree(ctx, fs, newRoot)
	if err != nil {
		return DiffResult{}, err
	}

	// the union of all paths, iterated in lexical order: a directory is always visited before its content
	txn := iradix.New().Txn()
	for pth := range oldEntries {
		txn.Insert([]byte(pth), nil)
	}
	for pth := range newEntries {
		txn.Insert([]byte(pth), nil)
	}
	union := txn.Commit()

	var (
		result  DiffResult
		walkErr error
	)
	union.Root().Walk(func(k []byte, _ interface{}) bool {
		if walkErr = ctx.Err(); walkErr != nil {
			return true
		}
		pth := string(k)
		oldKind, inOld := oldEntries[pth]
		newKind, inNew := newEntries[pth]

		switch {
		case inOld && !inNew:
			result.Removed = append(result.Removed, pth)
		case inNew && !inOld:
			result.Added = append(result.Added, pth)
		case oldKind == kindDir && newKind == kindDir:
			// traversed
		case oldKind != newKind:
			result.Changed = append(result.Changed, pth)
		default:
			same, err := sameContent(fs, filepath.Join(oldRoot, filepath.FromSlash(pth)), filepath.Join(newRoot, filepath.FromSlash(pth)))
			if err != nil {
				walkErr = err
				return true
			}
			if same {
				result.Unchanged = append(result.Unchanged, pth)
			} else {
				result.Changed = append(result.Changed, pth)
			}
		}
		return false
	})
	if walkErr != nil {
		return DiffResult{}, walkErr
	}

	l.Info("release trees compared",
		zap.String("old", oldRoot),
		zap.String("new", newRoot),
		zap.Int("removed", len(result.Removed)),
		zap.Int("added", len(result.Added)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("changed", len(result.Changed)),
	)
	return result, nil
}

// scanTree lists every path below root, keyed by its slash-separated relative path
func scanTree(ctx context.Context, fs afero.Fs, root string) (map[string]entryKind, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "scan", Path: root, Err: os.ErrInvalid}
	}

	entries := make(map[string]entryKind)
	err = afero.Walk(fs, root, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, pth)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		kind := kindFile
		if info.IsDir() {
			kind = kindDir
		}
		entries[model.ToManifestPath(rel)] = kind
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
