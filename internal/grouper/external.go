package grouper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Group is one externally-reported set of files believed to be duplicates.
type Group struct {
	Files []struct {
		Path string `json:"path"`
	} `json:"files"`
}

// Paths extracts the plain file paths from a Group.
func (g Group) Paths() []string {
	out := make([]string, len(g.Files))
	for i, f := range g.Files {
		out[i] = f.Path
	}
	return out
}

// ExternalGrouper is the narrow contract this tool needs from an external
// duplicate finder: a stream of groups, each a list of files believed
// (by whatever means that finder uses — name, size, content hash) to be
// duplicates of each other. Reimplementing such a finder is out of scope;
// this interface is the seam a real one plugs into.
type ExternalGrouper interface {
	Groups() ([]Group, error)
}

// jsonLinesGrouper reads one JSON-encoded Group per line, matching the
// `{"files": [{"path": "..."}]}` shape a fclones-style finder can be made to
// emit.
type jsonLinesGrouper struct {
	r io.Reader
}

// NewJSONLinesGrouper adapts r, a stream of newline-delimited JSON Group
// objects, to the ExternalGrouper contract.
func NewJSONLinesGrouper(r io.Reader) ExternalGrouper {
	return jsonLinesGrouper{r: r}
}

func (j jsonLinesGrouper) Groups() ([]Group, error) {
	scanner := bufio.NewScanner(j.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var groups []Group
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var g Group
		if err := json.Unmarshal(line, &g); err != nil {
			return nil, fmt.Errorf("parse group line: %w", err)
		}
		if len(g.Files) >= 2 {
			groups = append(groups, g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
