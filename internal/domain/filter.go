package domain

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	m "gooze.dev/pkg/mutants/internal/model"
)

// fileFilter applies --file and --exclude globs to tree-relative paths.
type fileFilter struct {
	examine []string
	exclude []string
}

func newFileFilter(examine, exclude []string) fileFilter {
	return fileFilter{examine: normalizeGlobs(examine), exclude: normalizeGlobs(exclude)}
}

func normalizeGlobs(globs []string) []string {
	out := make([]string, 0, len(globs))

	for _, glob := range globs {
		glob = strings.TrimPrefix(filepath.ToSlash(glob), "./")
		glob = strings.TrimSuffix(glob, "/")

		if glob != "" {
			out = append(out, glob)
		}
	}

	return out
}

// validateGlobs rejects malformed patterns before any work is done.
func validateGlobs(globs ...[]string) error {
	for _, list := range globs {
		for _, glob := range normalizeGlobs(list) {
			if _, err := path.Match(glob, ""); err != nil {
				return usageErrorf("invalid glob %q: %w", glob, err)
			}
		}
	}

	return nil
}

func (f fileFilter) selects(rel string) bool {
	if len(f.examine) > 0 && !matchesAny(f.examine, rel) {
		return false
	}

	return !matchesAny(f.exclude, rel)
}

func matchesAny(globs []string, rel string) bool {
	for _, glob := range globs {
		if globMatches(glob, rel) {
			return true
		}
	}

	return false
}

// globMatches matches the whole path, any parent directory, and, for globs
// without a slash, the base name or any directory component.
func globMatches(glob, rel string) bool {
	if ok, _ := path.Match(glob, rel); ok {
		return true
	}

	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if ok, _ := path.Match(glob, dir); ok {
			return true
		}
	}

	if strings.Contains(glob, "/") {
		return false
	}

	for _, part := range strings.Split(rel, "/") {
		if ok, _ := path.Match(glob, part); ok {
			return true
		}
	}

	return false
}

// NameFilter selects mutants by regular expressions over their names and
// drops names already known from a previous run.
type NameFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
	known   map[string]bool
}

// NewNameFilter compiles the --re and --exclude-re expressions.
func NewNameFilter(include, exclude, known []string) (NameFilter, error) {
	f := NameFilter{known: make(map[string]bool, len(known))}

	for _, name := range known {
		f.known[name] = true
	}

	var err error

	if f.include, err = compileAll(include); err != nil {
		return NameFilter{}, err
	}

	if f.exclude, err = compileAll(exclude); err != nil {
		return NameFilter{}, err
	}

	return f, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))

	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, usageErrorf("invalid regular expression %q: %w", expr, err)
		}

		out = append(out, re)
	}

	return out, nil
}

// Apply keeps the catalog order.
func (f NameFilter) Apply(mutants []m.Mutant) []m.Mutant {
	out := make([]m.Mutant, 0, len(mutants))

	for _, mutant := range mutants {
		name := mutant.Name()
		if f.known[name] {
			continue
		}

		if len(f.include) > 0 && !anyMatch(f.include, name) {
			continue
		}

		if anyMatch(f.exclude, name) {
			continue
		}

		out = append(out, mutant)
	}

	return out
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}

	return false
}
