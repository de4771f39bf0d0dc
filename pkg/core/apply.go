package core

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/core/status"
	"github.com/oneconcern/bandage/pkg/errors"
	"github.com/oneconcern/bandage/pkg/model"
	"github.com/oneconcern/bandage/pkg/workspace"
)

const applySessionPrefix = "bandage_patch_session"

// ApplyResult describes an applied patch
type ApplyResult struct {
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Versions model.Versions `json:"versions" yaml:"versions"`
	Added    int            `json:"added" yaml:"added"`
	Replaced int            `json:"replaced" yaml:"replaced"`
	Removed  int            `json:"removed" yaml:"removed"`
	Kept     int            `json:"kept" yaml:"kept"`

	// VersionWritten is true when the target VERSION holds the version the patch leads to
	VersionWritten bool `json:"versionWritten" yaml:"versionWritten"`
}

// patch is an unpacked patch archive
type patch struct {
	root        string
	name        string
	hasName     bool
	header      string
	versions    model.Versions
	hasVersions bool
	manifest    model.Manifest
}

// Apply applies the patch archive designated by patchLocator to the release tree at target.
//
// Every check runs before the target is modified. Once mutation has started, a failure
// leaves the target partially patched: there is no rollback.
func Apply(ctx context.Context, patchLocator, target string, opts ...Option) (ApplyResult, error) {
	s := newSettings(opts)

	ws, err := workspace.New(s.fs, applySessionPrefix, nil,
		workspace.BaseDir(s.workDir), workspace.Logger(s.l))
	if err != nil {
		return ApplyResult{}, err
	}
	defer func() {
		_ = ws.Close()
	}()

	archivePath := ws.Path(patchArchive)
	size, err := download(ctx, s, patchLocator, archivePath)
	if err != nil {
		return ApplyResult{}, status.ErrPatchNotFound.Wrap(err)
	}
	info, err := s.fs.Stat(target)
	if err != nil {
		return ApplyResult{}, status.ErrInvalidTarget.Wrap(err)
	}
	if !info.IsDir() {
		return ApplyResult{}, status.ErrInvalidTarget.WrapMessage("%s is not a directory", target)
	}
	if err = unpack(s, archivePath, ws.Path(patchDir)); err != nil {
		return ApplyResult{}, err
	}

	p, err := loadPatch(s, ws.Path(patchDir))
	if err != nil {
		return ApplyResult{}, err
	}
	if err = validatePatch(ctx, s, &p, target); err != nil {
		return ApplyResult{}, err
	}

	result, err := mutate(ctx, s, p, target)
	if err != nil {
		return result, err
	}

	s.l.Info("patch applied",
		zap.String("patch", patchLocator),
		zap.String("target", target),
		zap.Stringer("versions", p.versions),
		zap.Int("added", result.Added),
		zap.Int("replaced", result.Replaced),
		zap.Int("removed", result.Removed),
		zap.String("size", units.HumanSize(float64(size))),
	)
	return result, nil
}

// loadPatch reads the headers of an unpacked patch. They are checked later, along with the manifest.
func loadPatch(s Settings, root string) (patch, error) {
	p := patch{root: root}
	var err error
	if p.name, p.hasName, err = model.ReadToken(s.fs, root, model.NameFile); err != nil {
		return patch{}, status.ErrArchiveFormat.Wrap(err)
	}
	if p.header, p.hasVersions, err = model.ReadToken(s.fs, root, model.VersionsFile); err != nil {
		return patch{}, status.ErrArchiveFormat.Wrap(err)
	}
	return p, nil
}

// validatePatch runs every check that must pass before the target is modified
func validatePatch(ctx context.Context, s Settings, p *patch, target string) error {
	current, err := model.ReadRelease(s.fs, target)
	if err != nil {
		return status.ErrInvalidTarget.Wrap(err)
	}

	if s.skipNameCheck {
		s.l.Warn("NAME check skipped: the patch may not belong to this release")
	} else {
		switch {
		case !p.hasName:
			return status.ErrNameMissing.WrapMessage("patch has no %s", model.NameFile)
		case !current.HasName:
			return status.ErrNameMissing.WrapMessage("target %s has no %s", target, model.NameFile)
		case p.name != current.Name:
			return status.ErrNameMismatch.WrapMessage("patch is for %q, target is %q", p.name, current.Name)
		}
	}

	if p.hasVersions {
		versions, err := model.ParseVersions(p.header)
		switch {
		case err == nil:
			p.versions = versions
		case s.skipVersionCheck:
			s.l.Warn("ignoring unparsable patch VERSIONS", zap.String("versions", p.header), zap.Error(err))
			p.hasVersions = false
		default:
			return err
		}
	}
	if s.skipVersionCheck {
		s.l.Warn("VERSION check skipped: the patch may not apply to this release")
	} else {
		switch {
		case !p.hasVersions:
			return status.ErrVersionMissing.WrapMessage("patch has no %s", model.VersionsFile)
		case !current.HasVersion:
			return status.ErrVersionMissing.WrapMessage("target %s has no %s", target, model.VersionFile)
		case p.versions.From != current.Version:
			return status.ErrVersionMismatch.WrapMessage("patch applies to version %q, target is at version %q", p.versions.From, current.Version)
		}
	}

	b, err := afero.ReadFile(s.fs, filepath.Join(p.root, model.ManifestFile))
	if err != nil {
		return status.ErrManifestMissing.Wrap(err)
	}
	manifest, err := model.UnmarshalManifest(b)
	if err != nil {
		if errors.Is(err, status.ErrInvalidPath) {
			return err
		}
		return status.ErrManifestMissing.Wrap(err)
	}
	p.manifest = manifest

	if s.skipKeepCheck {
		s.l.Warn("keep check skipped: the target may not hold the expected content")
	} else {
		if err := checkPresent(s.fs, target, manifest.Keep, status.ErrKeepViolation.WrapMessage); err != nil {
			return err
		}
	}
	if err := checkPresent(s.fs, filepath.Join(p.root, model.AddDir), manifest.Add, status.ErrAdditionMissing.WrapMessage); err != nil {
		return err
	}
	if err := checkPresent(s.fs, filepath.Join(p.root, model.ReplaceDir), manifest.Replace, status.ErrReplacementMissing.WrapMessage); err != nil {
		return err
	}
	return verifyDigests(ctx, s, p)
}

func checkPresent(fs afero.Fs, root string, paths []string, fail func(string, ...interface{}) *errors.Error) error {
	for _, pth := range paths {
		local, err := model.FromManifestPath(root, pth)
		if err != nil {
			return err
		}
		ok, err := exists(fs, local)
		if err != nil {
			return err
		}
		if !ok {
			return fail("%q is missing", pth)
		}
	}
	return nil
}

// verifyDigests checks every payload file listed in the manifest digests
func verifyDigests(ctx context.Context, s Settings, p *patch) error {
	for pth, expected := range p.manifest.Digests {
		if err := ctx.Err(); err != nil {
			return err
		}
		local, err := model.FromManifestPath(p.root, pth)
		if err != nil {
			return err
		}
		f, err := s.fs.Open(local)
		if err != nil {
			if os.IsNotExist(err) {
				return status.ErrPayloadDigest.WrapMessage("payload %q is missing", pth)
			}
			return err
		}
		actual, err := model.Digest(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		if actual != expected {
			return status.ErrPayloadDigest.WrapMessage("payload %q is corrupted", pth)
		}
	}
	return nil
}

// mutate applies additions, then replacements, then removals, then the new VERSION
func mutate(ctx context.Context, s Settings, p patch, target string) (ApplyResult, error) {
	result := ApplyResult{
		Name:     p.name,
		Versions: p.versions,
		Kept:     len(p.manifest.Keep),
	}
	replaced := pathSet(p.manifest.Replace)
	removed := pathSet(p.manifest.Remove)

	for _, pth := range p.manifest.Add {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		// a file of the old release may stand where the new release has a directory
		if err := clearAncestors(s.fs, target, pth, replaced); err != nil {
			return result, err
		}
		if err := copyPayload(s, p.root, model.AddDir, target, pth); err != nil {
			return result, err
		}
		s.l.Debug("added", zap.String("path", pth))
		result.Added++
	}

	for _, pth := range p.manifest.Replace {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := replaceEntry(s, p.root, target, pth); err != nil {
			return result, err
		}
		s.l.Debug("replaced", zap.String("path", pth))
		result.Replaced++
	}

	for _, pth := range p.manifest.Remove {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		// gone already with a removed or replaced parent
		if !hasAncestor(pth, removed) && !hasAncestor(pth, replaced) {
			local, err := model.FromManifestPath(target, pth)
			if err != nil {
				return result, err
			}
			if err = s.fs.RemoveAll(local); err != nil {
				return result, err
			}
		}
		s.l.Debug("removed", zap.String("path", pth))
		result.Removed++
	}

	switch {
	case !p.hasVersions:
		s.l.Warn("patch has no VERSIONS: target VERSION left untouched")
	case p.versions.To == model.UnknownVersion:
		s.l.Warn("patch leads to an unknown version: target VERSION left untouched")
	default:
		current, found, err := model.ReadToken(s.fs, target, model.VersionFile)
		if err != nil {
			return result, err
		}
		if !found || current != p.versions.To {
			if err = model.RewriteToken(s.fs, target, model.VersionFile, p.versions.To); err != nil {
				return result, err
			}
		}
		result.VersionWritten = true
	}
	return result, nil
}

// replaceEntry swaps the target entry at pth for its replacement payload.
//
// A directory replacing a file keeps whatever the additions already put in it.
func replaceEntry(s Settings, patchRoot, target, pth string) error {
	src, err := model.FromManifestPath(filepath.Join(patchRoot, model.ReplaceDir), pth)
	if err != nil {
		return err
	}
	dst, err := model.FromManifestPath(target, pth)
	if err != nil {
		return err
	}
	srcIsDir, err := isDir(s.fs, src)
	if err != nil {
		return err
	}
	if srcIsDir {
		dstIsDir, err := isDir(s.fs, dst)
		if err != nil || dstIsDir {
			return err
		}
	}
	if err = s.fs.RemoveAll(dst); err != nil {
		return err
	}
	return copyEntry(s.fs, src, dst)
}

// clearAncestors removes the files standing in place of the parent directories of pth,
// when the patch replaces them
func clearAncestors(fs afero.Fs, target, pth string, replaced map[string]struct{}) error {
	parts := strings.Split(pth, "/")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], "/")
		local, err := model.FromManifestPath(target, ancestor)
		if err != nil {
			return err
		}
		info, err := fs.Stat(local)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			continue
		}
		if _, ok := replaced[ancestor]; !ok {
			return nil
		}
		return fs.Remove(local)
	}
	return nil
}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, pth := range paths {
		set[pth] = struct{}{}
	}
	return set
}

func hasAncestor(pth string, set map[string]struct{}) bool {
	for dir := path.Dir(pth); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, ok := set[dir]; ok {
			return true
		}
	}
	return false
}

func copyPayload(s Settings, patchRoot, dir, target, pth string) error {
	src, err := model.FromManifestPath(filepath.Join(patchRoot, dir), pth)
	if err != nil {
		return err
	}
	dst, err := model.FromManifestPath(target, pth)
	if err != nil {
		return err
	}
	return copyEntry(s.fs, src, dst)
}
