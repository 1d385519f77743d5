package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/slate/internal/core"
)

func (s *Store) InsertSettings(ctx context.Context, set core.OptimizationSettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO optimization_settings (
			id, entry_type, sport, max_salary, max_ownership, min_value,
			correlation_strength, lineup_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		set.ID, string(set.EntryType), set.Sport, set.MaxSalary, set.MaxOwnership, set.MinValue,
		string(set.CorrelationStrength), set.LineupCount, set.CreatedAt,
	)
	if err != nil {
		return wrapPgError("insert settings", err)
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context, id string) (*core.OptimizationSettings, error) {
	var (
		set         core.OptimizationSettings
		entryType   string
		correlation string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, entry_type, sport, max_salary, max_ownership, min_value,
			correlation_strength, lineup_count, created_at
		FROM optimization_settings WHERE id = $1`, id,
	).Scan(&set.ID, &entryType, &set.Sport, &set.MaxSalary, &set.MaxOwnership, &set.MinValue,
		&correlation, &set.LineupCount, &set.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrSettingsNotFound
	}
	if err != nil {
		return nil, wrapPgError("get settings", err)
	}
	set.EntryType = core.EntryType(entryType)
	set.CorrelationStrength = core.Correlation(correlation)
	return &set, nil
}

// SaveLineup stores an optimizer result with its players in slot order.
func (s *Store) SaveLineup(ctx context.Context, l core.Lineup) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		settingsID := pgtype.Text{String: l.SettingsID, Valid: l.SettingsID != ""}
		if _, err := tx.Exec(ctx, `
			INSERT INTO lineups (id, settings_id, sport, total_salary, projected_points, total_ownership)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, settingsID, l.Sport, l.TotalSalary, l.ProjectedPoints, l.TotalOwnership,
		); err != nil {
			return wrapPgError("insert lineup", err)
		}

		batch := &pgx.Batch{}
		for i, p := range l.Players {
			playerID := pgtype.Int8{Int64: p.PlayerID, Valid: p.PlayerID != 0}
			batch.Queue(`
				INSERT INTO lineup_players (lineup_id, ordinal, player_id, name, partner_id)
				VALUES ($1, $2, $3, $4, $5)`,
				l.ID, i, playerID, p.Name, p.PartnerID,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return wrapPgError("insert lineup players", err)
		}
		return nil
	})
}

const lineupColumns = `id, COALESCE(settings_id, ''), sport, total_salary, projected_points, total_ownership, created_at`

// GetLineups returns lineups in the requested order. Player names and
// partner ids come from the live pool when the player still exists.
func (s *Store) GetLineups(ctx context.Context, ids []string) ([]core.Lineup, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+lineupColumns+" FROM lineups WHERE id = ANY($1::text[])", ids)
	if err != nil {
		return nil, wrapPgError("get lineups", err)
	}
	found, err := pgx.CollectRows(rows, scanLineup)
	if err != nil {
		return nil, wrapPgError("get lineups", err)
	}

	byID := make(map[string]core.Lineup, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]core.Lineup, 0, len(ids))
	for _, id := range ids {
		l, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrLineupNotFound, id)
		}
		out = append(out, l)
	}
	return out, s.attachPlayers(ctx, out)
}

func (s *Store) ListLineupsBySettings(ctx context.Context, settingsID string) ([]core.Lineup, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+lineupColumns+" FROM lineups WHERE settings_id = $1 ORDER BY created_at, id",
		settingsID,
	)
	if err != nil {
		return nil, wrapPgError("list lineups", err)
	}
	out, err := pgx.CollectRows(rows, scanLineup)
	if err != nil {
		return nil, wrapPgError("list lineups", err)
	}
	return out, s.attachPlayers(ctx, out)
}

func (s *Store) attachPlayers(ctx context.Context, lineups []core.Lineup) error {
	if len(lineups) == 0 {
		return nil
	}
	ids := make([]string, len(lineups))
	index := make(map[string]int, len(lineups))
	for i, l := range lineups {
		ids[i] = l.ID
		index[l.ID] = i
	}

	rows, err := s.pool.Query(ctx, `
		SELECT lp.lineup_id, COALESCE(lp.player_id, 0), lp.ordinal,
			COALESCE(p.name, lp.name), COALESCE(p.partner_id, lp.partner_id)
		FROM lineup_players lp
		LEFT JOIN players p ON p.id = lp.player_id
		WHERE lp.lineup_id = ANY($1::text[])
		ORDER BY lp.lineup_id, lp.ordinal`, ids)
	if err != nil {
		return wrapPgError("load lineup players", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.LineupPlayer, error) {
		var lp core.LineupPlayer
		err := row.Scan(&lp.LineupID, &lp.PlayerID, &lp.Ordinal, &lp.Name, &lp.PartnerID)
		return lp, err
	})
	if err != nil {
		return wrapPgError("load lineup players", err)
	}

	for _, lp := range players {
		i := index[lp.LineupID]
		lineups[i].Players = append(lineups[i].Players, lp)
	}
	return nil
}

func scanLineup(row pgx.CollectableRow) (core.Lineup, error) {
	var l core.Lineup
	err := row.Scan(&l.ID, &l.SettingsID, &l.Sport, &l.TotalSalary, &l.ProjectedPoints, &l.TotalOwnership, &l.CreatedAt)
	return l, err
}
