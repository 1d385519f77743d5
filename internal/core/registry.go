package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FieldType represents how a column is coerced.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
)

// FieldSpec describes one logical column and the header spellings it accepts.
type FieldSpec struct {
	Name     string    // Logical name used by the normalizer
	Aliases  []string  // Accepted header spellings, matched after normalizeKey
	Type     FieldType // Coercion applied to the cell
	Required bool      // Used to locate the header row; never fails a row
}

// Profile is a normalization profile for one upload source.
type Profile struct {
	Type    FileType
	Label   string
	Markers []string // Lowercase filename fragments that select this profile
	Fields  []FieldSpec
}

// Field returns the FieldSpec for a logical field name.
func (p Profile) Field(name string) (FieldSpec, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// aliases returns the accepted header spellings for a logical field.
func (p Profile) aliases(name string) []string {
	f, ok := p.Field(name)
	if !ok {
		return nil
	}
	if len(f.Aliases) == 0 {
		return []string{f.Name}
	}
	return f.Aliases
}

// matchesHeader reports whether every required field resolves in idx.
func (p Profile) matchesHeader(idx HeaderIndex) bool {
	required := 0
	for _, f := range p.Fields {
		if !f.Required {
			continue
		}
		required++
		if !idx.Has(p.aliases(f.Name)...) {
			return false
		}
	}
	return required > 0
}

var (
	profiles   = make(map[FileType]Profile)
	profilesMu sync.RWMutex
)

// RegisterProfile adds a profile to the registry.
// Panics if a profile for the same file type is already registered.
func RegisterProfile(p Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()

	if _, exists := profiles[p.Type]; exists {
		panic(fmt.Sprintf("profile already registered: %s", p.Type))
	}
	for i, m := range p.Markers {
		p.Markers[i] = strings.ToLower(m)
	}
	profiles[p.Type] = p
}

// GetProfile returns the profile for a file type.
func GetProfile(t FileType) (Profile, bool) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	p, ok := profiles[t]
	return p, ok
}

// Profiles returns all registered profiles sorted by type.
func Profiles() []Profile {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	result := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// ClearProfiles removes all registered profiles.
// Primarily useful for testing.
func ClearProfiles() {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles = make(map[FileType]Profile)
}

// DetectFileType infers the upload kind from its filename.
//
// A filename containing a registered roster marker selects the roster
// profile whatever its extension. Otherwise text notes (.txt, .md) are
// analysis uploads and anything else falls through to projections. Callers
// that know the type should pass it explicitly instead; see ResolveFileType.
func DetectFileType(filename string) FileType {
	base := strings.ToLower(filepath.Base(filename))
	if p, ok := GetProfile(FileRoster); ok {
		for _, m := range p.Markers {
			if m != "" && strings.Contains(base, m) {
				return FileRoster
			}
		}
	}

	switch filepath.Ext(base) {
	case ".txt", ".md":
		return FileAnalysis
	}
	return FileProjections
}

// ResolveFileType prefers an explicit selector and falls back to the
// filename heuristic when the selector is empty.
func ResolveFileType(declared, filename string) (FileType, error) {
	if strings.TrimSpace(declared) == "" {
		return DetectFileType(filename), nil
	}
	t, ok := ParseFileType(declared)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileType, declared)
	}
	return t, nil
}
