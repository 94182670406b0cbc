// Package presets loads named filter presets from YAML files.
package presets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/problem-browser/internal/division"
	"github.com/terra-clan/problem-browser/internal/models"
)

// ErrNotFound is returned for an unknown preset name
var ErrNotFound = errors.New("preset not found")

// Loader manages loading and caching of presets
type Loader struct {
	mu      sync.RWMutex
	presets map[string]*models.Preset
}

// NewLoader creates a loader holding the built-in presets
func NewLoader() *Loader {
	l := &Loader{presets: make(map[string]*models.Preset)}
	for _, p := range builtin() {
		l.Add(p)
	}
	return l
}

func builtin() []*models.Preset {
	return []*models.Preset{
		{
			Name:        "default",
			Description: "Div 2 B problems, newest first",
			Filters: models.FilterState{
				Divisions: []models.Division{models.Div2},
				Indices:   []string{"B"},
				SortOrder: models.SortNewest,
			},
			ViewMode: models.ViewList,
		},
		{
			Name:        "warmup",
			Description: "A and B from Div 3 and Div 4",
			Filters: models.FilterState{
				Divisions: []models.Division{models.Div3, models.Div4},
				Indices:   []string{"A", "B"},
				SortOrder: models.SortNewest,
			},
			ViewMode: models.ViewCard,
		},
	}
}

// LoadFromDir loads every *.yaml and *.yml file in dir. Invalid files are
// logged and skipped.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading presets from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list presets: %w", err)
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load preset", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("presets loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single preset from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	preset, err := pf.toPreset()
	if err != nil {
		return err
	}

	l.Add(preset)
	slog.Debug("preset loaded", "name", preset.Name)
	return nil
}

// Get retrieves a preset by name
func (l *Loader) Get(name string) (*models.Preset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.presets[name]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns all presets ordered by name
func (l *Loader) List() []*models.Preset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Preset, 0, len(l.presets))
	for _, p := range l.presets {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Add registers a preset, replacing any with the same name
func (l *Loader) Add(p *models.Preset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.presets[p.Name] = p
}

// presetFile represents the YAML structure of a preset file
type presetFile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Divisions   []string `yaml:"divisions"`
	Indices     []string `yaml:"indices"`
	Sort        string   `yaml:"sort"`
	View        string   `yaml:"view"`
}

func (pf presetFile) toPreset() (*models.Preset, error) {
	if pf.Name == "" {
		return nil, fmt.Errorf("preset name is required")
	}

	p := &models.Preset{
		Name:        pf.Name,
		Description: pf.Description,
		Filters:     models.FilterState{SortOrder: models.SortNewest},
		ViewMode:    models.ViewList,
	}

	for _, d := range pf.Divisions {
		div := models.Division(d)
		if !division.Known(div) {
			return nil, fmt.Errorf("unknown division %q", d)
		}
		p.Filters.Divisions = append(p.Filters.Divisions, div)
	}
	for _, idx := range pf.Indices {
		idx = strings.ToUpper(strings.TrimSpace(idx))
		if idx == "" {
			return nil, fmt.Errorf("empty problem index")
		}
		p.Filters.Indices = append(p.Filters.Indices, idx)
	}

	if pf.Sort != "" {
		p.Filters.SortOrder = models.SortOrder(pf.Sort)
		if !p.Filters.SortOrder.Valid() {
			return nil, fmt.Errorf("invalid sort %q", pf.Sort)
		}
	}
	if pf.View != "" {
		p.ViewMode = models.ViewMode(pf.View)
		if !p.ViewMode.Valid() {
			return nil, fmt.Errorf("invalid view %q", pf.View)
		}
	}

	return p, nil
}
