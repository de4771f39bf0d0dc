package model

import (
	"bufio"
	"io"
	"strings"

	"github.com/oneconcern/bandage/pkg/core/status"
)

// Lineage is the ordered list of published version tags, newest first
type Lineage []string

// Latest version tag, or the empty string for an empty lineage
func (l Lineage) Latest() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

// Position of the first occurrence of version in the lineage, or -1
func (l Lineage) Position(version string) int {
	for i, tag := range l {
		if tag == version {
			return i
		}
	}
	return -1
}

// ParseLineage reads a line-oriented lineage list. Blank lines are skipped.
func ParseLineage(r io.Reader) (Lineage, error) {
	var lineage Lineage
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tag := strings.TrimSpace(scanner.Text())
		if tag == "" {
			continue
		}
		if err := ValidateVersion(tag); err != nil {
			return nil, err
		}
		lineage = append(lineage, tag)
	}
	if err := scanner.Err(); err != nil {
		return nil, status.ErrVersionParse.Wrap(err)
	}
	return lineage, nil
}
