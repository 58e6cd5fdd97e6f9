package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffHunk is the new-side view of one hunk of a unified diff.
type DiffHunk struct {
	// NewStart is the first line of the hunk in the new file.
	NewStart int
	// NewLines is the new-side text (context and added lines) in order.
	NewLines []string
	// Added holds the new-file line numbers of added lines.
	Added []int
}

// DiffFile is one file of a unified diff, seen from the new side.
type DiffFile struct {
	// Path is the slash-separated new path without the b/ prefix.
	Path  string
	Hunks []DiffHunk
}

// ParseUnifiedDiff parses a multi-file unified diff such as `git diff` output.
func ParseUnifiedDiff(content []byte) ([]DiffFile, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(content)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	if len(fileDiffs) == 0 {
		return nil, errors.New("no file diffs found")
	}

	files := make([]DiffFile, 0, len(fileDiffs))

	for _, fd := range fileDiffs {
		name := stripDiffPrefix(fd.NewName)
		if name == "" || name == "/dev/null" {
			continue
		}

		file := DiffFile{Path: name}

		for _, h := range fd.Hunks {
			hunk := newSideHunk(h)
			if len(hunk.NewLines) != int(h.NewLines) {
				return nil, fmt.Errorf("hunk at %s:%d has %d new lines, header says %d", name, h.NewStartLine, len(hunk.NewLines), h.NewLines)
			}

			file.Hunks = append(file.Hunks, hunk)
		}

		files = append(files, file)
	}

	return files, nil
}

func newSideHunk(h *diff.Hunk) DiffHunk {
	hunk := DiffHunk{NewStart: int(h.NewStartLine)}
	line := hunk.NewStart

	body := strings.TrimSuffix(string(h.Body), "\n")
	if body == "" {
		return hunk
	}

	for _, raw := range strings.Split(body, "\n") {
		if raw == "" {
			hunk.NewLines = append(hunk.NewLines, "")
			line++

			continue
		}

		switch raw[0] {
		case '+':
			hunk.NewLines = append(hunk.NewLines, raw[1:])
			hunk.Added = append(hunk.Added, line)
			line++
		case ' ':
			hunk.NewLines = append(hunk.NewLines, raw[1:])
			line++
		}
	}

	return hunk
}

func stripDiffPrefix(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}

	return name
}
