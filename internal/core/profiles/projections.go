package profiles

import "github.com/JonMunkholm/slate/internal/core"

func init() {
	registerProjections()
	registerAnalysis()
}

// registerProjections describes the analytics provider's projection export.
// Providers disagree on header names, so every field carries the spellings
// seen across feeds.
func registerProjections() {
	core.RegisterProfile(core.Profile{
		Type:  core.FileProjections,
		Label: "Projections",
		Fields: []core.FieldSpec{
			{Name: core.ColPartnerID, Aliases: []string{"partner_id", "dk_id", "draftkings_id", "DFS ID", "ID", "player_id"}},
			{Name: core.ColNameWithID, Aliases: []string{"Name + ID", "Name+ID"}},
			{Name: core.ColExternalID, Aliases: []string{"external_id", "analytics_id", "provider_id", "slate_player_id"}},
			{Name: core.ColName, Aliases: []string{"name", "player", "player_name"}},
			{Name: core.ColPosition, Aliases: []string{"position", "pos"}},
			{Name: core.ColTeam, Aliases: []string{"team", "team_abbrev"}},
			{Name: core.ColPoints, Aliases: []string{"fpts", "proj_points", "projected_points", "projection", "points"}, Type: core.FieldNumeric, Required: true},
			{Name: core.ColOwnership, Aliases: []string{"proj_own", "projected_ownership", "ownership", "own", "pown"}, Type: core.FieldNumeric},
			{Name: core.ColCeiling, Aliases: []string{"ceil", "ceiling"}, Type: core.FieldNumeric},
			{Name: core.ColFloor, Aliases: []string{"floor"}, Type: core.FieldNumeric},
			{Name: core.ColMinutes, Aliases: []string{"minutes", "min", "mins", "proj_minutes"}, Type: core.FieldNumeric},
			{Name: core.ColUsageRate, Aliases: []string{"usage_rate", "usage", "usg"}, Type: core.FieldNumeric},
			{Name: core.ColSnapCount, Aliases: []string{"snap_count", "snaps"}, Type: core.FieldNumeric},
			{Name: core.ColTargetShare, Aliases: []string{"target_share", "tgt_share"}, Type: core.FieldNumeric},
			{Name: core.ColRushShare, Aliases: []string{"rush_share"}, Type: core.FieldNumeric},
			{Name: core.ColDvpRank, Aliases: []string{"dvp_rank", "dvp", "opp_rank"}, Type: core.FieldNumeric},
		},
	})
}

// registerAnalysis covers free-text notes. They are stored on the ledger
// entry and never touch the player pool.
func registerAnalysis() {
	core.RegisterProfile(core.Profile{
		Type:  core.FileAnalysis,
		Label: "Analysis notes",
	})
}
