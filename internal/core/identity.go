package core

import (
	"log/slog"
	"regexp"
	"strings"
)

// nameWithIDRegex matches the platform's "Name (12345)" column.
var nameWithIDRegex = regexp.MustCompile(`^(.*?)\s*\((\d+)\)\s*$`)

// ParseGameInfo decomposes "AWAY@HOME <kickoff...>" into its parts.
// A value without '@' yields the zero GameInfo rather than an error.
// Everything after the first space is the kickoff token, so platform
// variants such as "NYJ@BUF 10/15/2023 01:00PM ET" keep the full time.
func ParseGameInfo(s string) GameInfo {
	s = strings.TrimSpace(s)
	matchup, kickoff, _ := strings.Cut(s, " ")

	away, home, ok := strings.Cut(matchup, "@")
	away = strings.ToUpper(strings.TrimSpace(away))
	home = strings.ToUpper(strings.TrimSpace(home))
	if !ok || away == "" || home == "" {
		return GameInfo{}
	}

	return GameInfo{
		Away:    away,
		Home:    home,
		Kickoff: strings.TrimSpace(kickoff),
	}
}

// Opponent returns the opponent recorded for players in this game.
//
// The away token is always used regardless of which side the player is on.
// TODO: derive the opponent from the player's team once the roster feed's
// away/home semantics are confirmed against a live export.
func (g GameInfo) Opponent() string {
	return g.Away
}

// SplitNameWithID extracts the display name and partner id from a
// "Name (12345)" value. ok is false when no trailing numeric id exists.
func SplitNameWithID(s string) (name, id string, ok bool) {
	m := nameWithIDRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// resolvePartnerID prefers the explicit id column and falls back to the
// combined name column.
func resolvePartnerID(explicit, nameWithID string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	if _, id, ok := SplitNameWithID(nameWithID); ok {
		return id
	}
	return ""
}

// resolveName prefers the explicit name column and falls back to the
// combined name column.
func resolveName(explicit, nameWithID string) string {
	if n := strings.TrimSpace(explicit); n != "" {
		return n
	}
	if n, _, ok := SplitNameWithID(nameWithID); ok {
		return n
	}
	return strings.TrimSpace(nameWithID)
}

// ResolveRoster completes roster rows into mergeable records.
//
// sport is the declared sport tag; when empty it is inferred from the file's
// position vocabulary and left empty when the positions fit several sports.
// Rows without a resolvable partner id are kept with an
// empty PartnerID; the engine drops and counts them.
func ResolveRoster(rows []RosterRow, sport string, catalog *Catalog) []RosterRecord {
	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" && catalog != nil {
		positions := make([]string, 0, len(rows))
		for _, r := range rows {
			positions = append(positions, r.Position)
		}
		sport = catalog.InferSport(positions)
		if sport == "" {
			slog.Warn("roster sport could not be inferred from positions; declare the sport", "rows", len(rows))
		}
	}

	records := make([]RosterRecord, 0, len(rows))
	for _, r := range rows {
		id := resolvePartnerID(r.PartnerID, r.NameWithID)
		game := ParseGameInfo(r.GameInfo)
		team := strings.ToUpper(strings.TrimSpace(r.Team))
		eligibility := r.RosterPosition
		if eligibility == "" {
			eligibility = r.Position
		}

		records = append(records, RosterRecord{
			PartnerID:       id,
			Name:            resolveName(r.Name, r.NameWithID),
			Position:        r.Position,
			Team:            team,
			Opponent:        game.Opponent(),
			Sport:           sport,
			Game:            game,
			Salary:          r.Salary,
			RosterPositions: eligibility,
			ProjectedPoints: r.AvgPoints,
		})
	}
	return records
}

// ResolveProjections completes projection rows into mergeable records.
func ResolveProjections(rows []ProjectionRow, sport string) []ProjectionRecord {
	sport = strings.ToLower(strings.TrimSpace(sport))
	records := make([]ProjectionRecord, 0, len(rows))

	for _, r := range rows {
		records = append(records, ProjectionRecord{
			PartnerID:       resolvePartnerID(r.PartnerID, r.NameWithID),
			ExternalID:      r.ExternalID,
			Name:            resolveName(r.Name, r.NameWithID),
			Position:        r.Position,
			Team:            strings.ToUpper(strings.TrimSpace(r.Team)),
			Sport:           sport,
			ProjectedPoints: r.Points,
			Ownership:       r.Ownership,
			Ceiling:         r.Ceiling,
			Floor:           r.Floor,
			Minutes:         r.Minutes,
			UsageRate:       r.UsageRate,
			SnapCount:       r.SnapCount,
			TargetShare:     r.TargetShare,
			RushShare:       r.RushShare,
			DvpRank:         r.DvpRank,
		})
	}
	return records
}
