package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/archive"
	"github.com/oneconcern/bandage/pkg/core/status"
	"github.com/oneconcern/bandage/pkg/model"
	"github.com/oneconcern/bandage/pkg/storage"
	"github.com/oneconcern/bandage/pkg/storage/localfs"
	"github.com/oneconcern/bandage/pkg/storage/locator"
	storagestatus "github.com/oneconcern/bandage/pkg/storage/status"
	"github.com/oneconcern/bandage/pkg/workspace"
)

const (
	weaveSessionPrefix = "bandage_weave_session"
	patchDir           = "patch"
	patchArchive       = "patch.zip"
)

// WeaveResult describes a woven patch
type WeaveResult struct {
	Diff     DiffResult     `json:"diff" yaml:"diff"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Versions model.Versions `json:"versions" yaml:"versions"`
	Output   string         `json:"output,omitempty" yaml:"output,omitempty"`
	Size     int64          `json:"size,omitempty" yaml:"size,omitempty"`
}

// Weave compares an old and a new release and writes the resulting patch archive to output.
//
// Releases are either directories or archive locators (local file, http(s), gs:// or s3://).
// The output is a locator too.
func Weave(ctx context.Context, oldRelease, newRelease, output string, opts ...Option) (WeaveResult, error) {
	s := newSettings(opts)

	ws, err := workspace.New(s.fs, weaveSessionPrefix,
		[]string{"old", "new", filepath.Join(patchDir, model.AddDir), filepath.Join(patchDir, model.ReplaceDir)},
		workspace.BaseDir(s.workDir), workspace.Logger(s.l))
	if err != nil {
		return WeaveResult{}, err
	}
	defer func() {
		_ = ws.Close()
	}()

	if !s.dryRun && !s.overwrite {
		if err = checkOutput(ctx, s, output); err != nil {
			return WeaveResult{}, err
		}
	}

	oldRoot, err := prepareRelease(ctx, s, ws, oldRelease, "old")
	if err != nil {
		return WeaveResult{}, err
	}
	newRoot, err := prepareRelease(ctx, s, ws, newRelease, "new")
	if err != nil {
		return WeaveResult{}, err
	}

	name, versions, err := releaseMetadata(s, oldRoot, newRoot)
	if err != nil {
		return WeaveResult{}, err
	}

	diff, err := diffTrees(ctx, s.fs, oldRoot, newRoot, s.l)
	if err != nil {
		return WeaveResult{}, err
	}
	result := WeaveResult{
		Diff:     diff,
		Name:     name,
		Versions: versions,
	}
	if s.dryRun {
		return result, nil
	}

	if err = stagePatch(s, ws, newRoot, result); err != nil {
		return WeaveResult{}, err
	}
	size, err := writePatch(ctx, s, ws, output)
	if err != nil {
		return WeaveResult{}, err
	}
	result.Output = output
	result.Size = size

	s.l.Info("patch woven",
		zap.String("name", name),
		zap.Stringer("versions", versions),
		zap.String("output", output),
		zap.String("size", units.HumanSize(float64(size))),
	)
	return result, nil
}

// releaseMetadata checks that both releases belong to the same lineage and resolves the patch NAME and VERSIONS
func releaseMetadata(s Settings, oldRoot, newRoot string) (string, model.Versions, error) {
	oldRelease, err := model.ReadRelease(s.fs, oldRoot)
	if err != nil {
		return "", model.Versions{}, err
	}
	newRelease, err := model.ReadRelease(s.fs, newRoot)
	if err != nil {
		return "", model.Versions{}, err
	}

	name := s.nameOverride
	if name == "" {
		switch {
		case oldRelease.HasName && newRelease.HasName && oldRelease.Name != newRelease.Name:
			return "", model.Versions{}, status.ErrNameMismatch.WrapMessage(
				"old release is %q, new release is %q: provide a name override to weave anyway", oldRelease.Name, newRelease.Name)
		case newRelease.HasName:
			name = newRelease.Name
		case oldRelease.HasName:
			name = oldRelease.Name
		}
	}

	if !oldRelease.HasVersion || !newRelease.HasVersion {
		if !s.suppressMissingVersions {
			return "", model.Versions{}, status.ErrMissingVersions.WrapMessage(
				"old release has VERSION: %t, new release has VERSION: %t", oldRelease.HasVersion, newRelease.HasVersion)
		}
		s.l.Warn("release versions are unknown: this patch cannot be resolved from a lineage")
		return name, model.Versions{From: model.UnknownVersion, To: model.UnknownVersion}, nil
	}

	for _, version := range []string{oldRelease.Version, newRelease.Version} {
		if err := model.ValidateVersion(version); err != nil {
			return "", model.Versions{}, err
		}
	}
	return name, model.Versions{From: oldRelease.Version, To: newRelease.Version}, nil
}

// prepareRelease yields the root of a release tree, unpacking archived releases into the workspace
func prepareRelease(ctx context.Context, s Settings, ws *workspace.Workspace, release, dir string) (string, error) {
	if !locator.IsRemote(release) {
		info, err := s.fs.Stat(release)
		if err != nil {
			return "", status.ErrReleaseNotFound.Wrap(err)
		}
		if info.IsDir() {
			return release, nil
		}
	}

	archivePath := ws.Path(dir + ".zip")
	if _, err := download(ctx, s, release, archivePath); err != nil {
		return "", status.ErrReleaseNotFound.Wrap(err)
	}
	root := ws.Path(dir)
	if err := unpack(s, archivePath, root); err != nil {
		return "", err
	}
	return root, nil
}

// download copies the object designated by a locator to a local file
func download(ctx context.Context, s Settings, loc, target string) (int64, error) {
	store, key, err := locator.Resolve(ctx, loc, s.locatorOptions()...)
	if err != nil {
		return 0, err
	}
	local := localfs.New(afero.NewBasePathFs(s.fs, filepath.Dir(target)))
	n, err := storage.ReadTee(ctx, store, key, local, filepath.Base(target), storage.OverWrite)
	if err != nil {
		return 0, err
	}
	s.l.Debug("downloaded", zap.String("locator", loc), zap.String("size", units.HumanSize(float64(n))))
	return n, nil
}

func unpack(s Settings, archivePath, root string) error {
	f, err := s.fs.Open(archivePath)
	if err != nil {
		return status.ErrArchiveFormat.Wrap(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return status.ErrArchiveFormat.Wrap(err)
	}
	if err = archive.Unpack(s.fs, f, info.Size(), root); err != nil {
		return status.ErrArchiveFormat.Wrap(err)
	}
	return nil
}

// stagePatch lays out the patch content in the workspace
func stagePatch(s Settings, ws *workspace.Workspace, newRoot string, result WeaveResult) error {
	manifest := result.Diff.Manifest()
	manifest.Digests = make(map[string]string)

	stage := func(dir string, paths []string) error {
		for _, pth := range paths {
			src, err := model.FromManifestPath(newRoot, pth)
			if err != nil {
				return err
			}
			dst, err := model.FromManifestPath(ws.Path(patchDir, dir), pth)
			if err != nil {
				return err
			}
			if err := copyEntry(s.fs, src, dst); err != nil {
				return err
			}
			s.l.Debug("staged", zap.String("payload", model.PayloadPath(dir, pth)))
		}
		return digestPayload(s, ws.Path(patchDir), dir, manifest.Digests)
	}
	if err := stage(model.AddDir, result.Diff.Added); err != nil {
		return err
	}
	if err := stage(model.ReplaceDir, result.Diff.Changed); err != nil {
		return err
	}

	b, err := manifest.Marshal()
	if err != nil {
		return err
	}
	patchRoot := ws.Path(patchDir)
	if err = afero.WriteFile(s.fs, filepath.Join(patchRoot, model.ManifestFile), b, 0644); err != nil {
		return err
	}
	if result.Name != "" {
		if err = model.WriteToken(s.fs, patchRoot, model.NameFile, result.Name); err != nil {
			return err
		}
	}
	return model.WriteToken(s.fs, patchRoot, model.VersionsFile, result.Versions.String())
}

// digestPayload records the digest of every payload file under a payload tree
func digestPayload(s Settings, patchRoot, dir string, digests map[string]string) error {
	payloadRoot := filepath.Join(patchRoot, dir)
	return afero.Walk(s.fs, payloadRoot, func(pth string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(patchRoot, pth)
		if err != nil {
			return err
		}
		f, err := s.fs.Open(pth)
		if err != nil {
			return err
		}
		defer f.Close()
		digest, err := model.Digest(f)
		if err != nil {
			return err
		}
		digests[model.ToManifestPath(rel)] = digest
		return nil
	})
}

// writePatch packs the staged patch and stores it at the output location
// checkOutput fails early when the patch would not be allowed to replace an existing object
func checkOutput(ctx context.Context, s Settings, output string) error {
	store, key, err := locator.Resolve(ctx, output, s.locatorOptions()...)
	if err != nil {
		return err
	}
	has, err := store.Has(ctx, key)
	if err != nil {
		return err
	}
	if has {
		return storagestatus.ErrExists.WrapMessage("%s: %q", store.String(), key)
	}
	return nil
}

func writePatch(ctx context.Context, s Settings, ws *workspace.Workspace, output string) (int64, error) {
	var buf bytes.Buffer
	if err := archive.Pack(s.fs, ws.Path(patchDir), &buf); err != nil {
		return 0, err
	}
	size := int64(buf.Len())

	store, key, err := locator.Resolve(ctx, output, s.locatorOptions()...)
	if err != nil {
		return 0, err
	}
	if err = store.Put(ctx, key, &buf, !s.overwrite); err != nil {
		return 0, err
	}
	return size, nil
}
