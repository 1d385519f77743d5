package core

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed sports.yaml
var sportsYAML []byte

// SportRules are the contest platform's roster rules for one sport.
type SportRules struct {
	Key         string   `yaml:"-"`
	Label       string   `yaml:"label"`
	Slots       []string `yaml:"slots"`
	SalaryCap   int      `yaml:"salary_cap"`
	SalaryFloor int      `yaml:"salary_floor"`
	MinPool     int      `yaml:"min_pool"`
	Positions   []string `yaml:"positions"`
}

// Catalog holds the rules for every supported sport.
type Catalog struct {
	sports map[string]SportRules
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded sport catalog.
// Panics if the embedded document is invalid; that is a build defect.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(sportsYAML)
	})
	if defaultCatalogErr != nil {
		panic(fmt.Sprintf("embedded sports catalog: %v", defaultCatalogErr))
	}
	return defaultCatalog
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Sports map[string]SportRules `yaml:"sports"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Sports) == 0 {
		return nil, fmt.Errorf("catalog has no sports")
	}

	c := &Catalog{sports: make(map[string]SportRules, len(doc.Sports))}
	for key, rules := range doc.Sports {
		key = strings.ToLower(strings.TrimSpace(key))
		rules.Key = key
		if len(rules.Slots) == 0 {
			return nil, fmt.Errorf("sport %s: no slots", key)
		}
		if rules.SalaryCap <= 0 || rules.SalaryFloor <= 0 || rules.SalaryFloor > rules.SalaryCap {
			return nil, fmt.Errorf("sport %s: invalid salary band [%d, %d]", key, rules.SalaryFloor, rules.SalaryCap)
		}
		if rules.MinPool < len(rules.Slots) {
			return nil, fmt.Errorf("sport %s: min_pool %d below slot count %d", key, rules.MinPool, len(rules.Slots))
		}
		for i, p := range rules.Positions {
			rules.Positions[i] = strings.ToUpper(strings.TrimSpace(p))
		}
		c.sports[key] = rules
	}
	return c, nil
}

// Get returns the rules for a sport tag (case-insensitive).
func (c *Catalog) Get(sport string) (SportRules, error) {
	rules, ok := c.sports[strings.ToLower(strings.TrimSpace(sport))]
	if !ok {
		return SportRules{}, fmt.Errorf("%w: %q", ErrUnknownSport, sport)
	}
	return rules, nil
}

// Keys returns every sport tag, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.sports))
	for k := range c.sports {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InferSport returns the only sport whose position vocabulary covers every
// observed position. Multi-eligibility strings such as "PG/SG" are split.
// Returns "" when no sport, or more than one, covers the set.
func (c *Catalog) InferSport(positions []string) string {
	observed := make(map[string]bool)
	for _, p := range positions {
		for _, part := range strings.Split(p, "/") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				observed[part] = true
			}
		}
	}
	if len(observed) == 0 {
		return ""
	}

	var matches []string
	for _, key := range c.Keys() {
		vocab := make(map[string]bool, len(c.sports[key].Positions))
		for _, p := range c.sports[key].Positions {
			vocab[p] = true
		}
		covers := true
		for p := range observed {
			if !vocab[p] {
				covers = false
				break
			}
		}
		if covers {
			matches = append(matches, key)
		}
	}
	if len(matches) != 1 {
		return ""
	}
	return matches[0]
}
