// Package registry builds profile registries from directories of JSON files.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bambumate/bambumate/internal/domain"
)

// DirSource implements domain.ProfileSource over explicit directories.
type DirSource struct{}

// New creates a DirSource.
func New() *DirSource { return &DirSource{} }

// Load parses every *.json file under dirs (recursively) into a registry.
// When two files declare the same name, the one from the later directory
// wins, so user directories listed after system ones override them.
// Files without a name field are skipped.
func (s *DirSource) Load(dirs ...string) (domain.MapRegistry, error) {
	reg := domain.NewMapRegistry()
	for _, dir := range dirs {
		files, err := jsonFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			p, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			reg.Add(p)
		}
	}
	return reg, nil
}

// LoadFile parses a single profile file.
func LoadFile(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p, err := domain.ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// jsonFiles returns the JSON files under dir in lexical order.
func jsonFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("profile directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("profile directory %s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
