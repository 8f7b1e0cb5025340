package renderers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

// ErrUnknownFormat is returned by Lookup for an unregistered renderer name.
var ErrUnknownFormat = errors.New("unsupported export format")

// Artifact is one rendered file.
type Artifact struct {
	// Name is the file name relative to the directory the caller writes into.
	Name    string
	Content []byte
	Type    string
}

// Renderer produces output artifacts from a repository context.
type Renderer interface {
	// Name returns the renderer identifier (e.g. "claude", "sections").
	Name() string
	// Render produces artifacts from the given context.
	Render(ctx context.Context, c *repoctx.Context) ([]Artifact, error)
}

// Registry holds registered renderers.
type Registry struct {
	renderers []Renderer
}

// NewRegistry creates a new renderer registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a renderer to the registry.
func (r *Registry) Register(rnd Renderer) {
	r.renderers = append(r.renderers, rnd)
}

// Get returns the renderer with the given name, or nil if not found.
func (r *Registry) Get(name string) Renderer {
	for _, rnd := range r.renderers {
		if rnd.Name() == name {
			return rnd
		}
	}
	return nil
}

// Lookup is Get with an ErrUnknownFormat error naming the registered choices.
func (r *Registry) Lookup(name string) (Renderer, error) {
	if rnd := r.Get(name); rnd != nil {
		return rnd, nil
	}
	return nil, fmt.Errorf("%w: %s. Use one of: %s", ErrUnknownFormat, name, strings.Join(r.Names(), ", "))
}

// Names returns the registered renderer names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.renderers))
	for _, rnd := range r.renderers {
		names = append(names, rnd.Name())
	}
	return names
}

// All returns all registered renderers.
func (r *Registry) All() []Renderer {
	return r.renderers
}
