package core

import (
	"fmt"
	"strings"
)

// EntryDefaults are the constraint values applied when a request leaves
// them unset, plus the lineup cap for the entry type.
type EntryDefaults struct {
	MaxLineups   int
	MaxOwnership float64
	MinValue     float64
	Correlation  Correlation
}

var entryDefaults = map[EntryType]EntryDefaults{
	EntrySingle: {MaxLineups: 1, MaxOwnership: 35, MinValue: 2.5, Correlation: CorrelationMedium},
	Entry3Max:   {MaxLineups: 3, MaxOwnership: 40, MinValue: 2.5, Correlation: CorrelationMedium},
	Entry20Max:  {MaxLineups: 20, MaxOwnership: 50, MinValue: 2.0, Correlation: CorrelationStrong},
}

// DefaultsFor returns the defaults for an entry type.
func DefaultsFor(t EntryType) (EntryDefaults, bool) {
	d, ok := entryDefaults[t]
	return d, ok
}

// SettingsValidator checks a settings request against the sport catalog.
type SettingsValidator struct {
	catalog *Catalog
}

// NewSettingsValidator creates a validator. A nil catalog uses DefaultCatalog.
func NewSettingsValidator(catalog *Catalog) *SettingsValidator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &SettingsValidator{catalog: catalog}
}

// Validate applies entry-type defaults and checks every constraint.
//
// Unset fields (zero values) take the entry type's default, and an unset
// max_salary takes the sport's cap. All problems are reported together in a
// single ValidationError. The input is not modified.
func (v *SettingsValidator) Validate(s OptimizationSettings) (OptimizationSettings, error) {
	var problems []string

	s.EntryType = EntryType(strings.ToLower(strings.TrimSpace(string(s.EntryType))))
	s.Sport = strings.ToLower(strings.TrimSpace(s.Sport))
	s.CorrelationStrength = Correlation(strings.ToLower(strings.TrimSpace(string(s.CorrelationStrength))))

	defaults, knownEntry := entryDefaults[s.EntryType]
	if !knownEntry {
		problems = append(problems, fmt.Sprintf("entry type %q must be one of single, 3-max, 20-max", s.EntryType))
	}

	rules, err := v.catalog.Get(s.Sport)
	knownSport := err == nil
	if !knownSport {
		problems = append(problems, fmt.Sprintf("sport %q must be one of %s", s.Sport, strings.Join(v.catalog.Keys(), ", ")))
	}

	if knownEntry {
		if s.LineupCount == 0 {
			s.LineupCount = defaults.MaxLineups
		}
		if s.MaxOwnership == 0 {
			s.MaxOwnership = defaults.MaxOwnership
		}
		if s.MinValue == 0 {
			s.MinValue = defaults.MinValue
		}
		if s.CorrelationStrength == "" {
			s.CorrelationStrength = defaults.Correlation
		}
		if s.LineupCount < 1 || s.LineupCount > defaults.MaxLineups {
			problems = append(problems, fmt.Sprintf("lineup count %d must be between 1 and %d for %s entries", s.LineupCount, defaults.MaxLineups, s.EntryType))
		}
	}

	if knownSport {
		if s.MaxSalary == 0 {
			s.MaxSalary = rules.SalaryCap
		}
		if s.MaxSalary < rules.SalaryFloor || s.MaxSalary > rules.SalaryCap {
			problems = append(problems, fmt.Sprintf("max salary %d must be between %d and %d", s.MaxSalary, rules.SalaryFloor, rules.SalaryCap))
		}
	}

	if s.MaxOwnership < 0 || s.MaxOwnership > 100 {
		problems = append(problems, fmt.Sprintf("max ownership %.1f must be between 0 and 100", s.MaxOwnership))
	}
	if s.MinValue < 0 {
		problems = append(problems, fmt.Sprintf("min value %.2f must not be negative", s.MinValue))
	}

	switch s.CorrelationStrength {
	case CorrelationWeak, CorrelationMedium, CorrelationStrong:
	case "":
		// unknown entry type already reported
	default:
		problems = append(problems, fmt.Sprintf("correlation strength %q must be one of weak, medium, strong", s.CorrelationStrength))
	}

	if len(problems) > 0 {
		return OptimizationSettings{}, &ValidationError{Problems: problems}
	}
	return s, nil
}
