// Package preset persists named dashboard filters on disk.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/utils"
)

// ErrNotFound indicates no preset exists under the requested name.
var ErrNotFound = errors.New("preset not found")

// Preset is a named, reusable dashboard filter.
type Preset struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Filter      nps.Filter `json:"filter"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid preset name %q (letters, digits, '.', '_' and '-' only)", name)
	}
	return nil
}

// Store keeps one JSON file per preset in a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on first Save.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, strings.ToLower(name)+".json")
}

// Save validates the filter and writes the preset. Saving an existing name
// keeps its ID and creation time.
func (s *Store) Save(name, description string, f nps.Filter) (*Preset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	p, err := s.Load(name)
	switch {
	case errors.Is(err, ErrNotFound):
		p = &Preset{ID: uuid.NewString(), Name: name, CreatedAt: now}
	case err != nil:
		return nil, err
	}
	p.Description = strings.TrimSpace(description)
	p.Filter = f
	p.UpdatedAt = now

	data, err := utils.PrettyJSON(p)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(s.path(name), data, 0o644); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a preset by name.
func (s *Store) Load(name string) (*Preset, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read preset: %w", err)
	}
	var p Preset
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", name, err)
	}
	return &p, nil
}

// List returns all presets sorted by name. A missing directory yields none.
func (s *Store) List() ([]*Preset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets dir: %w", err)
	}
	var out []*Preset
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		p, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a preset.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete preset: %w", err)
	}
	return nil
}
