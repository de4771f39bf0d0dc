// Package status exports errors produced by the core package.
//
// Errors are grouped by kind: locator, consistency, manifest, integrity,
// parse and network errors.
package status

import (
	"github.com/oneconcern/bandage/pkg/errors"
)

var (
	// Locator errors

	// ErrPatchNotFound indicates the patch locator did not resolve to readable archive bytes
	ErrPatchNotFound = errors.New("patch not found")

	// ErrReleaseNotFound indicates a release locator did not resolve to a directory or a readable archive
	ErrReleaseNotFound = errors.New("release not found")

	// ErrInvalidTarget indicates the target installation root does not exist or is not a directory
	ErrInvalidTarget = errors.New("invalid target")

	// ErrUnsupportedScheme indicates a remote address with a scheme other than http or https
	ErrUnsupportedScheme = errors.New("unsupported remote scheme")

	// ErrUnsupportedRemote indicates a hosted forge address with an unrecognized shape
	ErrUnsupportedRemote = errors.New("unsupported remote")

	// Consistency errors

	// ErrNameMismatch indicates two artifacts expected to share a lineage carry different NAME
	ErrNameMismatch = errors.New("name mismatch")

	// ErrNameMissing indicates a NAME file is missing from the patch or the target
	ErrNameMissing = errors.New("name missing")

	// ErrVersionMismatch indicates the target VERSION is not the version the patch applies from
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrVersionMissing indicates a VERSION or VERSIONS file is missing from the target or the patch
	ErrVersionMissing = errors.New("version missing")

	// ErrMissingVersions indicates a release tree has no VERSION file and missing versions are not suppressed
	ErrMissingVersions = errors.New("missing versions")

	// Manifest errors

	// ErrManifestMissing indicates the patch has no CHANGE manifest, or one that does not parse
	ErrManifestMissing = errors.New("change manifest missing")

	// ErrArchiveFormat indicates the patch or release archive cannot be unpacked
	ErrArchiveFormat = errors.New("invalid archive format")

	// Integrity errors

	// ErrKeepViolation indicates a path listed as kept does not exist in the target
	ErrKeepViolation = errors.New("kept path missing from target")

	// ErrAdditionMissing indicates a path listed as added has no payload
	ErrAdditionMissing = errors.New("addition missing from payload")

	// ErrReplacementMissing indicates a path listed as replaced has no payload
	ErrReplacementMissing = errors.New("replacement missing from payload")

	// ErrPayloadDigest indicates a payload does not match the digest recorded in the manifest
	ErrPayloadDigest = errors.New("payload digest mismatch")

	// ErrInvalidPath indicates a manifest path that is absolute or escapes the tree root
	ErrInvalidPath = errors.New("invalid manifest path")

	// Parse errors

	// ErrVersionParse indicates a malformed VERSIONS header, or a version containing the reserved separator
	ErrVersionParse = errors.New("cannot parse versions")

	// ErrCatalogParse indicates a malformed patch catalog line
	ErrCatalogParse = errors.New("cannot parse patch catalog")

	// ErrLineageMembership indicates the current version does not belong to the published lineage
	ErrLineageMembership = errors.New("version not in lineage")

	// Network errors

	// ErrFetch indicates a remote resource could not be fetched
	ErrFetch = errors.New("fetch failed")
)
