// Package resolve provides a reference IncludeResolver: a FileSystemResolver
// that searches an ordered list of directories (plain paths or doublestar
// glob patterns, e.g. "vendor/**/include") for a #include target.
package resolve

import (
	"log"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FileSystemResolver resolves #include directives against real files on
// disk, in the order the search directories were given. Quoted includes
// additionally try relative to CurrentDir before falling back to the search
// path, matching the usual quoted-vs-angle-bracket search order.
type FileSystemResolver struct {
	// SearchDirs is the ordered list of include directories. Entries may be
	// plain directories or doublestar glob patterns; patterns are expanded
	// once, at resolver construction time.
	SearchDirs []string
	// CurrentDir is consulted first for quoted ("...") includes.
	CurrentDir string
}

// NewFileSystemResolver expands any glob patterns in searchDirs and returns
// a resolver rooted at currentDir for quoted includes.
func NewFileSystemResolver(currentDir string, searchDirs ...string) (*FileSystemResolver, error) {
	var expanded []string
	for _, pattern := range searchDirs {
		if !doublestar.ValidatePattern(pattern) {
			expanded = append(expanded, pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			expanded = append(expanded, pattern)
			continue
		}
		expanded = append(expanded, matches...)
	}
	return &FileSystemResolver{SearchDirs: expanded, CurrentDir: currentDir}, nil
}

// Resolve opens the first match found and returns the open file.
// tcpp.FileSystemIncludeResolver adapts it into a tcpp.IncludeResolver that
// wraps the file in a tcpp.FileInputStream.
func (r *FileSystemResolver) Resolve(path string, isSystem bool) (*os.File, bool) {
	candidates := r.candidatePaths(path, isSystem)

	var found []string
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return nil, false
	}
	if len(found) > 1 {
		log.Printf("tcpp: ambiguous resolution for include %q: matches %v; using %v", path, found, found[0])
	}

	f, err := os.Open(found[0])
	if err != nil {
		return nil, false
	}
	return f, true
}

func (r *FileSystemResolver) candidatePaths(path string, isSystem bool) []string {
	var candidates []string
	if !isSystem && r.CurrentDir != "" {
		candidates = append(candidates, filepath.Join(r.CurrentDir, path))
	}
	for _, dir := range r.SearchDirs {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	return candidates
}
