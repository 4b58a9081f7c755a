package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"quill/internal/logging"
)

// Store resolves personas from built-in defaults plus YAML files in a
// user directory (typically <configdir>/personas). A user file named
// after a builtin overrides it.
type Store struct {
	dir string
}

// NewStore creates a store reading user personas from dir. An empty or
// missing dir yields the builtins only.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// All returns every known persona, sorted by name.
func (s *Store) All() ([]Persona, error) {
	byName := make(map[string]Persona)
	for _, p := range Builtin() {
		byName[p.Name] = p
	}

	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read personas directory: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
				continue
			}
			p, err := loadFile(filepath.Join(s.dir, name))
			if err != nil {
				// A broken persona file should not hide the rest.
				logging.Warn("skipping persona file", "file", name, "error", err)
				continue
			}
			byName[p.Name] = p
		}
	}

	all := make([]Persona, 0, len(byName))
	for _, p := range byName {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Get returns the persona with the given name.
func (s *Store) Get(name string) (Persona, error) {
	all, err := s.All()
	if err != nil {
		return Persona{}, err
	}
	for _, p := range all {
		if p.Name == name {
			return p, nil
		}
	}
	return Persona{}, fmt.Errorf("unknown persona %q", name)
}

func loadFile(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, err
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("failed to parse persona file %s: %w", path, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return Persona{}, fmt.Errorf("persona file %s has no name", path)
	}
	return p, nil
}
