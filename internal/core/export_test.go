package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nflLineup(id string, n int) Lineup {
	names := []string{"Josh Allen", "Breece Hall", "James Cook", "Garrett Wilson", "Stefon Diggs", "Gabe Davis", "Dawson Knox", "Tyler Conklin", "Bills"}
	l := Lineup{ID: id, Sport: "nfl"}
	for i := 0; i < n; i++ {
		l.Players = append(l.Players, LineupPlayer{
			LineupID:  id,
			Ordinal:   i,
			Name:      names[i%len(names)],
			PartnerID: strings.Repeat("1", i+1),
		})
	}
	return l
}

func TestExportSlotOrderFidelity(t *testing.T) {
	out, err := NewExporter(nil).Render("nfl", []Lineup{nflLineup("l1", 9)})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "QB,RB,RB,WR,WR,WR,TE,FLEX,DST", lines[0])

	tokens := strings.Split(lines[1], ",")
	require.Len(t, tokens, 9)
	assert.Equal(t, "Josh Allen (1)", tokens[0])
	assert.Equal(t, "Breece Hall (11)", tokens[1])
	assert.Equal(t, "Bills (111111111)", tokens[8])
}

func TestExportPadsAndTruncates(t *testing.T) {
	short := nflLineup("short", 2)
	long := nflLineup("long", 9)
	long.Players = append(long.Players, LineupPlayer{Name: "Extra", PartnerID: "999"})

	var buf bytes.Buffer
	require.NoError(t, NewExporter(nil).Write(&buf, "NFL", []Lineup{short, long}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Josh Allen (1),Breece Hall (11),,,,,,,", lines[1])
	assert.Len(t, strings.Split(lines[2], ","), 9)
	assert.NotContains(t, lines[2], "Extra")
}

func TestExportQuotesTokens(t *testing.T) {
	l := Lineup{ID: "q", Players: []LineupPlayer{{Name: "Doe, J.", PartnerID: "7"}}}

	out, err := NewExporter(nil).Render("pga", []Lineup{l})
	require.NoError(t, err)
	assert.Equal(t, "G,G,G,G,G,G\n\"Doe, J. (7)\",,,,,\n", string(out))
}

func TestExportHeaderOnly(t *testing.T) {
	out, err := NewExporter(nil).Render("nba", nil)
	require.NoError(t, err)
	assert.Equal(t, "PG,SG,SF,PF,C,G,F,UTIL\n", string(out))
}

func TestExportUnknownSport(t *testing.T) {
	_, err := NewExporter(nil).Render("cfl", nil)
	assert.ErrorIs(t, err, ErrUnknownSport)
}

func TestExportFilename(t *testing.T) {
	day := time.Date(2024, 10, 13, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "lineups-nfl-2024-10-13.csv", ExportFilename("NFL", day))
}
