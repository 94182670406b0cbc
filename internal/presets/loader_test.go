package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/problem-browser/internal/models"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestNewLoader_Builtins(t *testing.T) {
	l := NewLoader()

	p, err := l.Get("default")
	require.NoError(t, err)
	assert.Equal(t, []models.Division{models.Div2}, p.Filters.Divisions)
	assert.Equal(t, []string{"B"}, p.Filters.Indices)

	_, err = l.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hard.yaml", `
name: hard
description: Late problems from combined rounds
divisions: ["1+2", "1"]
indices: [e, f, g]
sort: oldest
view: card
`)
	writeFile(t, dir, "broken.yml", "name: broken\ndivisions: [\"7\"]\n")
	writeFile(t, dir, "noname.yaml", "indices: [A]\n")
	writeFile(t, dir, "notes.txt", "ignored")

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))

	p, err := l.Get("hard")
	require.NoError(t, err)
	assert.Equal(t, []models.Division{models.Div1And2, models.Div1}, p.Filters.Divisions)
	assert.Equal(t, []string{"E", "F", "G"}, p.Filters.Indices)
	assert.Equal(t, models.SortOldest, p.Filters.SortOrder)
	assert.Equal(t, models.ViewCard, p.ViewMode)

	_, err = l.Get("broken")
	assert.ErrorIs(t, err, ErrNotFound)

	names := []string{}
	for _, p := range l.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"default", "hard", "warmup"}, names)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain.yaml", "name: plain\ndivisions: [\"3\"]\nindices: [C]\n")

	l := NewLoader()
	require.NoError(t, l.LoadFromFile(filepath.Join(dir, "plain.yaml")))

	p, err := l.Get("plain")
	require.NoError(t, err)
	assert.Equal(t, models.SortNewest, p.Filters.SortOrder)
	assert.Equal(t, models.ViewList, p.ViewMode)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sort.yaml", "name: s\nsort: sideways\n")
	writeFile(t, dir, "view.yaml", "name: v\nview: grid\n")
	writeFile(t, dir, "yaml.yaml", "name: [\n")

	l := NewLoader()
	for _, f := range []string{"sort.yaml", "view.yaml", "yaml.yaml", "missing.yaml"} {
		assert.Error(t, l.LoadFromFile(filepath.Join(dir, f)), f)
	}
}
