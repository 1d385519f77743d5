package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportContentType is the MIME type of an export file.
const ExportContentType = "text/csv; charset=utf-8"

// ExportFilename names an export file for sport generated on day.
func ExportFilename(sport string, day time.Time) string {
	return fmt.Sprintf("lineups-%s-%s.csv", strings.ToLower(sport), day.Format("2006-01-02"))
}

// PlayerToken renders the platform's "Name (id)" entry token.
func PlayerToken(p LineupPlayer) string {
	return fmt.Sprintf("%s (%s)", p.Name, p.PartnerID)
}

// Exporter writes lineups in the platform's entry upload layout.
type Exporter struct {
	catalog *Catalog
}

// NewExporter creates an exporter. A nil catalog uses DefaultCatalog.
func NewExporter(catalog *Catalog) *Exporter {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Exporter{catalog: catalog}
}

// Write emits one header line of the sport's slot codes followed by one
// line per lineup.
//
// Slot i is paired with the lineup's i-th stored player. Nothing is matched
// by position: a slot past the end of the player list gets an empty token and
// players beyond the slot count are not written.
func (e *Exporter) Write(w io.Writer, sport string, lineups []Lineup) error {
	rules, err := e.catalog.Get(sport)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(rules.Slots); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(rules.Slots))
	for _, l := range lineups {
		for i := range rules.Slots {
			record[i] = ""
			if i < len(l.Players) {
				record[i] = PlayerToken(l.Players[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write lineup %s: %w", l.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Render returns the export as a byte slice.
func (e *Exporter) Render(sport string, lineups []Lineup) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, sport, lineups); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
