package model

import (
	"strings"

	"github.com/oneconcern/bandage/pkg/core/status"
)

const (
	// VersionSeparator is the reserved token separating versions in a VERSIONS header.
	// It must never appear in a version.
	VersionSeparator = " -> "

	// UnknownVersion is the placeholder for a release tree without VERSION,
	// when missing versions are suppressed. Patches built with it do not take
	// part in lineage resolution.
	UnknownVersion = "UNKNOWN"
)

// Versions is the transition declared by a patch
type Versions struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// String renders the VERSIONS header
func (v Versions) String() string {
	return v.From + VersionSeparator + v.To
}

// IsUnknown tells if either end of the transition is the unknown version placeholder
func (v Versions) IsUnknown() bool {
	return v.From == UnknownVersion || v.To == UnknownVersion
}

// ValidateVersion checks that a version token may be serialized into a VERSIONS header.
//
// The unknown version placeholder is reserved: no release may carry it as its VERSION.
func ValidateVersion(version string) error {
	if strings.Contains(version, VersionSeparator) {
		return status.ErrVersionParse.WrapMessage("version %q contains the reserved separator %q", version, VersionSeparator)
	}
	if version == UnknownVersion {
		return status.ErrVersionParse.WrapMessage("version %q is reserved for releases without VERSION", version)
	}
	return nil
}

// ParseVersions parses a "<from> -> <to>" header
func ParseVersions(header string) (Versions, error) {
	parts := strings.Split(strings.TrimSpace(header), VersionSeparator)
	if len(parts) != 2 {
		return Versions{}, status.ErrVersionParse.WrapMessage("expected %q, got %q", "<from>"+VersionSeparator+"<to>", header)
	}
	v := Versions{From: strings.TrimSpace(parts[0]), To: strings.TrimSpace(parts[1])}
	if v.From == "" || v.To == "" {
		return Versions{}, status.ErrVersionParse.WrapMessage("empty version in %q", header)
	}
	return v, nil
}
