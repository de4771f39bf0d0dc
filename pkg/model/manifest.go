package model

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Manifest is the CHANGE manifest of a patch.
//
// Paths are tree-relative and slash-separated. Digests maps payload
// locations (e.g. "add/bin/tool") to their blake2b hex digest.
type Manifest struct {
	Remove  []string          `json:"remove"`
	Add     []string          `json:"add"`
	Keep    []string          `json:"keep"`
	Replace []string          `json:"replace"`
	Digests map[string]string `json:"digests,omitempty"`
}

var manifestJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Marshal the manifest to JSON
func (m Manifest) Marshal() ([]byte, error) {
	return manifestJSON.MarshalIndent(m.normalized(), "", "  ")
}

// normalized yields sorted copies of the path sets, with empty arrays rather than null
func (m Manifest) normalized() Manifest {
	n := m
	for _, set := range []*[]string{&n.Remove, &n.Add, &n.Keep, &n.Replace} {
		sorted := make([]string, len(*set))
		copy(sorted, *set)
		sort.Strings(sorted)
		*set = sorted
	}
	return n
}

// UnmarshalManifest decodes a CHANGE manifest and validates every path it lists
func UnmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := manifestJSON.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	for _, set := range [][]string{m.Remove, m.Add, m.Keep, m.Replace} {
		for _, p := range set {
			if err := ValidatePath(p); err != nil {
				return Manifest{}, err
			}
		}
	}
	for p := range m.Digests {
		if err := ValidatePath(p); err != nil {
			return Manifest{}, err
		}
	}
	return m, nil
}

// Len is the total number of paths in the manifest
func (m Manifest) Len() int {
	return len(m.Remove) + len(m.Add) + len(m.Keep) + len(m.Replace)
}
