package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

// Source is one configured Golemio realtime feed to relay.
type Source struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Kind     golemio.FeedKind `json:"kind" yaml:"kind"`
	Enabled  *bool            `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	RouteIDs []string         `json:"route_ids,omitempty" yaml:"route_ids,omitempty"`
}

// IsEnabled defaults to true when the flag is omitted.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// MatchesRoutes reports whether an entity touching routeIDs passes the
// source's route filter. An empty filter matches everything.
func (s Source) MatchesRoutes(routeIDs []string) bool {
	if len(s.RouteIDs) == 0 {
		return true
	}
	for _, want := range s.RouteIDs {
		for _, got := range routeIDs {
			if strings.EqualFold(want, got) {
				return true
			}
		}
	}
	return false
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry holds the validated feed sources.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	idx     map[string]Source
}

// LoadRegistry reads the sources file (YAML or JSON) at path.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("feeds file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	file, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	return NewRegistry(file.Sources)
}

// NewRegistry validates sources and indexes them by id.
func NewRegistry(sources []Source) (*Registry, error) {
	if len(sources) == 0 {
		return nil, errors.New("feeds file contains no sources entries")
	}

	out := make([]Source, 0, len(sources))
	idx := make(map[string]Source, len(sources))
	for i := range sources {
		s := sanitizeSource(sources[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		idx[s.ID] = s
		out = append(out, s)
	}

	return &Registry{sources: out, idx: idx}, nil
}

// All returns every configured source in file order.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns the sources that are switched on.
func (r *Registry) Enabled() []Source {
	var out []Source
	for _, s := range r.All() {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// ByID looks up a source.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.idx[strings.TrimSpace(id)]
	return s, ok
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err != nil {
			errs = append(errs, fmt.Errorf("decode %s feeds: %w", d.name, err))
			continue
		}
		return file, nil
	}

	return registryFile{}, errors.Join(append([]error{errors.New("feeds file format not recognized (expected YAML or JSON)")}, errs...)...)
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	if kind, err := golemio.ParseFeedKind(string(s.Kind)); err == nil {
		s.Kind = kind
	} else {
		s.Kind = golemio.FeedKind(strings.TrimSpace(string(s.Kind)))
	}

	routes := s.RouteIDs[:0:0]
	for _, r := range s.RouteIDs {
		if r = strings.TrimSpace(r); r != "" {
			routes = append(routes, r)
		}
	}
	s.RouteIDs = routes
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for source %q", s.ID)
	}
	if s.Kind == "" {
		return fmt.Errorf("kind is required for source %q", s.ID)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown kind %q for source %q", s.Kind, s.ID)
	}
	return nil
}
