package core

// normalize.go turns loosely typed spreadsheet rows into RosterRow and
// ProjectionRow values.
//
// Absence is data: a missing column yields "" or 0, an unparseable number
// yields 0 plus a ParseError for diagnostics, and no row is ever rejected here.

// Logical field names shared by the profiles and the normalizer.
const (
	ColPartnerID      = "partner_id"
	ColNameWithID     = "name_with_id"
	ColExternalID     = "external_id"
	ColName           = "name"
	ColPosition       = "position"
	ColRosterPosition = "roster_position"
	ColSalary         = "salary"
	ColTeam           = "team"
	ColGameInfo       = "game_info"
	ColAvgPoints      = "avg_points"
	ColPoints         = "points"
	ColOwnership      = "ownership"
	ColCeiling        = "ceiling"
	ColFloor          = "floor"
	ColMinutes        = "minutes"
	ColUsageRate      = "usage_rate"
	ColSnapCount      = "snap_count"
	ColTargetShare    = "target_share"
	ColRushShare      = "rush_share"
	ColDvpRank        = "dvp_rank"
)

// MaxHeaderSearchRows is the maximum number of rows scanned for the header.
var MaxHeaderSearchRows = 20

// Table is a located header plus the data rows beneath it.
type Table struct {
	Header     HeaderIndex
	Rows       [][]string
	HeaderLine int // 1-indexed line of the header row
}

// LocateTable finds the header row for profile p among the first
// MaxHeaderSearchRows records. Platform exports sometimes carry instruction
// lines above the header. When no row matches, the first non-empty row is
// used so that a file with unexpected headers still normalizes to defaults.
func LocateTable(records [][]string, p Profile) Table {
	limit := MaxHeaderSearchRows
	if len(records) < limit {
		limit = len(records)
	}

	for i := 0; i < limit; i++ {
		idx := MakeHeaderIndex(records[i])
		if p.matchesHeader(idx) {
			return Table{Header: idx, Rows: records[i+1:], HeaderLine: i + 1}
		}
	}

	for i, rec := range records {
		if !isEmptyRow(rec) {
			return Table{Header: MakeHeaderIndex(rec), Rows: records[i+1:], HeaderLine: i + 1}
		}
	}
	return Table{Header: HeaderIndex{}}
}

// rowReader reads logical fields from one row and collects parse errors.
type rowReader struct {
	profile Profile
	header  HeaderIndex
	row     []string
	line    int
	errs    []*ParseError
}

func (r *rowReader) text(field string) string {
	return r.header.Cell(r.row, r.profile.aliases(field)...)
}

func (r *rowReader) present(field string) bool {
	return r.header.Has(r.profile.aliases(field)...)
}

func (r *rowReader) number(field string) float64 {
	raw := r.text(field)
	d, ok := ParseNumber(raw)
	if !ok {
		if raw != "" {
			r.errs = append(r.errs, &ParseError{Line: r.line, Column: field, Value: raw})
		}
		return 0
	}
	f, _ := d.Float64()
	return f
}

func (r *rowReader) integer(field string) int {
	raw := r.text(field)
	d, ok := ParseNumber(raw)
	if !ok {
		if raw != "" {
			r.errs = append(r.errs, &ParseError{Line: r.line, Column: field, Value: raw})
		}
		return 0
	}
	return int(d.Round(0).IntPart())
}

// optional returns nil when the column is absent from the file.
func (r *rowReader) optional(field string) *float64 {
	if !r.present(field) {
		return nil
	}
	v := r.number(field)
	return &v
}

// NormalizeRoster converts a located table into roster rows.
// Blank lines are skipped; everything else produces a row.
func NormalizeRoster(t Table, p Profile) ([]RosterRow, []*ParseError) {
	rows := make([]RosterRow, 0, len(t.Rows))
	var errs []*ParseError

	for i, raw := range t.Rows {
		if isEmptyRow(raw) {
			continue
		}
		r := &rowReader{profile: p, header: t.Header, row: raw, line: t.HeaderLine + i + 1}
		rows = append(rows, RosterRow{
			PartnerID:      r.text(ColPartnerID),
			Name:           r.text(ColName),
			NameWithID:     r.text(ColNameWithID),
			Position:       r.text(ColPosition),
			RosterPosition: r.text(ColRosterPosition),
			Salary:         r.integer(ColSalary),
			Team:           r.text(ColTeam),
			GameInfo:       r.text(ColGameInfo),
			AvgPoints:      r.number(ColAvgPoints),
		})
		errs = append(errs, r.errs...)
	}
	return rows, errs
}

// NormalizeProjections converts a located table into projection rows.
func NormalizeProjections(t Table, p Profile) ([]ProjectionRow, []*ParseError) {
	rows := make([]ProjectionRow, 0, len(t.Rows))
	var errs []*ParseError

	for i, raw := range t.Rows {
		if isEmptyRow(raw) {
			continue
		}
		r := &rowReader{profile: p, header: t.Header, row: raw, line: t.HeaderLine + i + 1}
		rows = append(rows, ProjectionRow{
			PartnerID:   r.text(ColPartnerID),
			NameWithID:  r.text(ColNameWithID),
			ExternalID:  r.text(ColExternalID),
			Name:        r.text(ColName),
			Position:    r.text(ColPosition),
			Team:        r.text(ColTeam),
			Points:      r.number(ColPoints),
			Ownership:   r.number(ColOwnership),
			Ceiling:     r.number(ColCeiling),
			Floor:       r.number(ColFloor),
			Minutes:     r.number(ColMinutes),
			UsageRate:   r.optional(ColUsageRate),
			SnapCount:   r.optional(ColSnapCount),
			TargetShare: r.optional(ColTargetShare),
			RushShare:   r.optional(ColRushShare),
			DvpRank:     r.optional(ColDvpRank),
		})
		errs = append(errs, r.errs...)
	}
	return rows, errs
}
