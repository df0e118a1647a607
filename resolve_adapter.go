package tcpp

import "github.com/go-tcpp/tcpp/internal/cc/resolve"

// FileSystemIncludeResolver adapts a resolve.FileSystemResolver into an
// IncludeResolver, wrapping whatever file it finds in a FileInputStream.
func FileSystemIncludeResolver(r *resolve.FileSystemResolver) IncludeResolver {
	return func(path string, isSystem bool) (InputStream, bool) {
		f, ok := r.Resolve(path, isSystem)
		if !ok {
			return nil, false
		}
		return NewFileInputStream(f), true
	}
}
