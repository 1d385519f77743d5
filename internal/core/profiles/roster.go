package profiles

import "github.com/JonMunkholm/slate/internal/core"

func init() {
	registerRoster()
}

// registerRoster describes the contest platform's salary template
// (DKSalaries.csv and its workbook export).
func registerRoster() {
	core.RegisterProfile(core.Profile{
		Type:    core.FileRoster,
		Label:   "Roster / salaries",
		Markers: []string{"dksalaries", "salaries", "roster"},
		Fields: []core.FieldSpec{
			{Name: core.ColPartnerID, Aliases: []string{"ID", "Player ID", "partner_id", "dk_id"}},
			{Name: core.ColName, Aliases: []string{"Name", "Player", "Player Name"}, Required: true},
			{Name: core.ColNameWithID, Aliases: []string{"Name + ID", "Name+ID", "NameID"}},
			{Name: core.ColPosition, Aliases: []string{"Position", "Pos"}},
			{Name: core.ColRosterPosition, Aliases: []string{"Roster Position", "RosterPosition", "Roster Positions"}},
			{Name: core.ColSalary, Aliases: []string{"Salary", "Sal"}, Type: core.FieldNumeric, Required: true},
			{Name: core.ColTeam, Aliases: []string{"TeamAbbrev", "Team Abbrev", "Team"}},
			{Name: core.ColGameInfo, Aliases: []string{"Game Info", "GameInfo", "Game"}},
			{Name: core.ColAvgPoints, Aliases: []string{"AvgPointsPerGame", "Avg Points Per Game", "FPPG"}, Type: core.FieldNumeric},
		},
	})
}
