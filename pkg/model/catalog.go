package model

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/oneconcern/bandage/pkg/core/status"
)

// CatalogSeparator separates the versions from the locator in a catalog line
const CatalogSeparator = "||"

// CatalogEntry describes a published patch.
//
// Locator is either an absolute URI or a path relative to the catalog publishing base.
type CatalogEntry struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Locator string `json:"locator" yaml:"locator"`
}

// String renders the catalog line for this entry
func (e CatalogEntry) String() string {
	return Versions{From: e.From, To: e.To}.String() + CatalogSeparator + e.Locator
}

// Catalog is the ordered list of published patches
type Catalog []CatalogEntry

// From yields the entries that apply from some version, in catalog order
func (c Catalog) From(version string) Catalog {
	var candidates Catalog
	for _, entry := range c {
		if entry.From == version {
			candidates = append(candidates, entry)
		}
	}
	return candidates
}

// ParseCatalog reads a line-oriented patch catalog. Blank lines are skipped.
func ParseCatalog(r io.Reader) (Catalog, error) {
	var catalog Catalog
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		entry, err := parseCatalogLine(text)
		if err != nil {
			return nil, status.ErrCatalogParse.Wrap(fmt.Errorf("line %d: %w", line, err))
		}
		catalog = append(catalog, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, status.ErrCatalogParse.Wrap(err)
	}
	return catalog, nil
}

func parseCatalogLine(text string) (CatalogEntry, error) {
	idx := strings.Index(text, CatalogSeparator)
	if idx < 0 {
		return CatalogEntry{}, fmt.Errorf("missing %q in %q", CatalogSeparator, text)
	}
	versions, err := ParseVersions(text[:idx])
	if err != nil {
		return CatalogEntry{}, err
	}
	locator := strings.TrimSpace(text[idx+len(CatalogSeparator):])
	if locator == "" {
		return CatalogEntry{}, fmt.Errorf("empty locator in %q", text)
	}
	return CatalogEntry{From: versions.From, To: versions.To, Locator: locator}, nil
}
