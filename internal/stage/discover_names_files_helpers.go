package stage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flarebyte/ekvstore/internal/namesfile"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// readDirGitignore parses the .gitignore of relDir (slash or OS separated,
// "." for the root), scoping its patterns to that directory.
func readDirGitignore(absRoot, relDir string) []gitignore.Pattern {
	b, err := os.ReadFile(filepath.Join(absRoot, relDir, ".gitignore"))
	if err != nil {
		return nil
	}
	var base []string
	if relDir != "." && relDir != "" {
		base = strings.Split(filepath.ToSlash(relDir), "/")
	}
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, base))
	}
	return patterns
}

func displayPath(absRoot, p string) string {
	rel, err := filepath.Rel(absRoot, p)
	if err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}

// findNamesFiles walks absRoot and returns sorted slash-separated paths of
// names files relative to absRoot. Symlinked directories are not followed.
func findNamesFiles(absRoot string, noGitignore bool, keepGoing bool) ([]string, []Error, error) {
	var found []string
	var envErrs []Error
	fail := func(p string, err error) error {
		if keepGoing {
			envErrs = append(envErrs, Error{Stage: discoverNamesFilesStage, Locator: displayPath(absRoot, p), Message: err.Error()})
			return nil
		}
		return stageFatal(discoverNamesFilesStage, displayPath(absRoot, p), err.Error())
	}

	// walkDir receives the patterns of every ancestor .gitignore; the
	// directory's own file is read once and appended before its entries.
	var walkDir func(dir string, inherited []gitignore.Pattern) error
	walkDir = func(dir string, inherited []gitignore.Pattern) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fail(dir, err)
		}
		var matcher gitignore.Matcher
		patterns := inherited
		if !noGitignore {
			relDir, err := filepath.Rel(absRoot, dir)
			if err == nil {
				if own := readDirGitignore(absRoot, relDir); len(own) > 0 {
					patterns = append(append([]gitignore.Pattern(nil), inherited...), own...)
				}
			}
			if len(patterns) > 0 {
				matcher = gitignore.NewMatcher(patterns)
			}
		}
		for _, ent := range entries {
			p := filepath.Join(dir, ent.Name())
			rel, err := filepath.Rel(absRoot, p)
			if err != nil {
				if ferr := fail(p, err); ferr != nil {
					return ferr
				}
				continue
			}
			isDir := ent.IsDir()
			if matcher != nil && matcher.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir) {
				continue
			}
			if isDir {
				if err := walkDir(p, patterns); err != nil {
					return err
				}
				continue
			}
			if ent.Type()&os.ModeSymlink != 0 {
				st, err := os.Stat(p)
				if err != nil {
					if ferr := fail(p, err); ferr != nil {
						return ferr
					}
					continue
				}
				if st.IsDir() {
					continue
				}
			}
			if strings.HasSuffix(ent.Name(), namesfile.Suffix) {
				found = append(found, filepath.ToSlash(rel))
			}
		}
		return nil
	}

	if err := walkDir(absRoot, nil); err != nil {
		return nil, nil, err
	}
	sort.Strings(found)
	return found, envErrs, nil
}
