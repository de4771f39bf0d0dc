package core

import (
	"bytes"
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/oneconcern/bandage/pkg/core/status"
	"github.com/oneconcern/bandage/pkg/model"
)

// SupplyStatus is the outcome of a lineage resolution
type SupplyStatus uint8

const (
	// UpToDate indicates the current version is the latest
	UpToDate SupplyStatus = iota
	// PatchAvailable indicates a patch progresses the current version toward the latest
	PatchAvailable
	// NoPath indicates no published patch progresses the current version
	NoPath
)

func (s SupplyStatus) String() string {
	switch s {
	case UpToDate:
		return "up-to-date"
	case PatchAvailable:
		return "patch-available"
	case NoPath:
		return "no-path"
	default:
		return "unknown"
	}
}

// MarshalText renders the status in reports
func (s SupplyStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SupplyResult describes the outcome of a lineage resolution
type SupplyResult struct {
	Status  SupplyStatus `json:"status" yaml:"status"`
	Current string       `json:"current" yaml:"current"`
	Latest  string       `json:"latest" yaml:"latest"`

	// Gap is the lineage position of the current version: the number of newer releases
	Gap int `json:"gap" yaml:"gap"`

	// Locator of the patch to apply next, resolved against the remote
	Locator string              `json:"locator,omitempty" yaml:"locator,omitempty"`
	Entry   *model.CatalogEntry `json:"entry,omitempty" yaml:"entry,omitempty"`

	// Chain is the sequence of patches leading to the selected version (chained search only)
	Chain []model.CatalogEntry `json:"chain,omitempty" yaml:"chain,omitempty"`
}

// Supply checks a remote catalog for a patch that progresses the current version.
func Supply(ctx context.Context, remoteAddr, current string, opts ...Option) (SupplyResult, error) {
	s := newSettings(opts)

	remote, err := ParseRemote(remoteAddr)
	if err != nil {
		return SupplyResult{}, err
	}
	current = strings.TrimSpace(current)

	lineage, catalog, err := fetchCatalog(ctx, s, remote)
	if err != nil {
		return SupplyResult{}, err
	}

	gap := lineage.Position(current)
	if gap < 0 {
		return SupplyResult{}, status.ErrLineageMembership.WrapMessage("version %q is not published on %s", current, remote)
	}
	result := SupplyResult{
		Current: current,
		Latest:  lineage.Latest(),
		Gap:     gap,
	}
	if gap == 0 {
		result.Status = UpToDate
		s.l.Info("up to date", zap.String("version", current))
		return result, nil
	}

	var chain []model.CatalogEntry
	if s.chained {
		chain = searchChain(catalog, lineage[:gap], current)
	} else {
		chain = searchHop(catalog, lineage[:gap], current)
	}
	if len(chain) == 0 {
		result.Status = NoPath
		s.l.Info("no patch available", zap.String("version", current), zap.String("latest", result.Latest))
		return result, nil
	}

	next := chain[0]
	result.Status = PatchAvailable
	result.Entry = &next
	result.Locator = remote.Resolve(next.Locator)
	if s.chained {
		result.Chain = chain
	}
	s.l.Info("patch available",
		zap.String("version", current),
		zap.String("to", next.To),
		zap.String("latest", result.Latest),
		zap.Int("hops", len(chain)),
		zap.String("locator", result.Locator),
	)
	return result, nil
}

// fetchCatalog retrieves the lineage list and the patch catalog of a remote.
//
// Catalog entries with an unknown version are ignored.
func fetchCatalog(ctx context.Context, s Settings, remote Remote) (model.Lineage, model.Catalog, error) {
	b, err := s.fetcher.GetBytes(ctx, remote.LineageURL())
	if err != nil {
		return nil, nil, status.ErrFetch.Wrap(err)
	}
	lineage, err := model.ParseLineage(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}

	b, err = s.fetcher.GetBytes(ctx, remote.CatalogURL())
	if err != nil {
		return nil, nil, status.ErrFetch.Wrap(err)
	}
	published, err := model.ParseCatalog(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}

	catalog := make(model.Catalog, 0, len(published))
	for _, entry := range published {
		if (model.Versions{From: entry.From, To: entry.To}).IsUnknown() {
			s.l.Debug("ignoring catalog entry with unknown version", zap.Stringer("entry", entry))
			continue
		}
		catalog = append(catalog, entry)
	}
	return lineage, catalog, nil
}

// searchHop finds a single patch from current to the newest reachable version in newer.
//
// Newer versions are scanned newest first. Catalog order breaks ties.
func searchHop(catalog model.Catalog, newer model.Lineage, current string) []model.CatalogEntry {
	candidates := catalog.From(current)
	if len(candidates) == 0 {
		return nil
	}
	for _, tag := range newer {
		for _, candidate := range candidates {
			if candidate.To == tag {
				return []model.CatalogEntry{candidate}
			}
		}
	}
	return nil
}

// searchChain finds the shortest chain of patches from current to the newest reachable version in newer
func searchChain(catalog model.Catalog, newer model.Lineage, current string) []model.CatalogEntry {
	// breadth-first: the first edge to reach a version is on one of its shortest chains
	via := map[string]model.CatalogEntry{}
	visited := map[string]bool{current: true}
	queue := []string{current}
	for len(queue) > 0 {
		version := queue[0]
		queue = queue[1:]
		for _, entry := range catalog.From(version) {
			if visited[entry.To] {
				continue
			}
			visited[entry.To] = true
			via[entry.To] = entry
			queue = append(queue, entry.To)
		}
	}

	for _, tag := range newer {
		if !visited[tag] || tag == current {
			continue
		}
		var chain []model.CatalogEntry
		for version := tag; version != current; version = via[version].From {
			chain = append([]model.CatalogEntry{via[version]}, chain...)
		}
		return chain
	}
	return nil
}
