// Package grouper reads externally-supplied file groupings as lists of
// paths: either blank-line-delimited groups read from stdin, or groups
// produced by an external duplicate finder through the ExternalGrouper
// contract. Callers build target.DeduplicationTarget values from them.
package grouper

import (
	"bufio"
	"io"
	"strings"
)

// ReadStdinGroups reads blank-line-delimited groups of file paths from r,
// one path per line within a group. A run of two or more consecutive paths
// forms a candidate group; single-entry groups are dropped since there is
// nothing to deduplicate against. The final group is flushed at EOF even
// without a trailing blank line.
func ReadStdinGroups(r io.Reader) ([][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var groups [][]string
	var current []string

	flush := func() {
		if len(current) >= 2 {
			groups = append(groups, current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return groups, nil
}
