// Package manifest provides best-effort file probes relative to a
// repository root. Absence is a normal value, never an error.
package manifest

import (
	"io"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 256

type probe struct {
	content string
	ok      bool
}

// Reader reads files relative to Root and caches the results. It is safe
// for concurrent use.
type Reader struct {
	Root  string
	cache *lru.Cache[string, probe]
}

// NewReader returns a Reader rooted at root.
func NewReader(root string) *Reader {
	cache, err := lru.New[string, probe](cacheSize)
	if err != nil {
		// Only fails for a non-positive size.
		panic(err)
	}
	return &Reader{Root: root, cache: cache}
}

// Probe returns the content of the file at rel and whether it could be read.
func (r *Reader) Probe(rel string) (string, bool) {
	if p, ok := r.cache.Get(rel); ok {
		return p.content, p.ok
	}
	data, err := os.ReadFile(r.path(rel))
	p := probe{content: string(data), ok: err == nil}
	r.cache.Add(rel, p)
	return p.content, p.ok
}

// Exists reports whether rel names an existing file or directory.
func (r *Reader) Exists(rel string) bool {
	_, err := os.Stat(r.path(rel))
	return err == nil
}

func (r *Reader) path(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// Sample reads at most limit bytes of rel without caching the result.
func (r *Reader) Sample(rel string, limit int) (string, bool) {
	f, err := os.Open(r.path(rel))
	if err != nil {
		return "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return "", false
	}
	return string(data), true
}
