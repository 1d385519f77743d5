package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/slate/internal/core"
)

// players implements core.PlayerStore on a pool or a transaction.
type players struct {
	q querier
}

const playerColumns = `id, partner_id, external_id, name, position, team, opponent, sport,
	home_team, away_team, kickoff, salary, roster_positions, projected_points, ownership,
	ceiling, floor, minutes, usage_rate, snap_count, target_share, rush_share, dvp_rank,
	status, created_at, updated_at`

const markUnavailableSQL = `
UPDATE players
SET status = 'unavailable', updated_at = now()
WHERE status <> 'unavailable' AND NOT (status = ANY($1::text[]))`

func (p players) MarkUnavailableExcept(ctx context.Context, keep []core.PlayerStatus) (int64, error) {
	tag, err := p.q.Exec(ctx, markUnavailableSQL, statusStrings(keep))
	if err != nil {
		return 0, wrapPgError("mark players unavailable", err)
	}
	return tag.RowsAffected(), nil
}

// upsertRosterSQL replaces roster-owned columns only. Ceiling, floor,
// minutes and the secondary metrics are not in the SET list.
const upsertRosterSQL = `
INSERT INTO players (
	partner_id, name, position, team, opponent, sport, away_team, home_team, kickoff,
	salary, roster_positions, projected_points, ownership, status
)
SELECT u.partner_id, u.name, u.position, u.team, u.opponent, u.sport, u.away_team, u.home_team, u.kickoff,
	u.salary, u.roster_positions, u.projected_points, 0, 'available'
FROM unnest(
	$1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::text[], $9::text[],
	$10::int8[], $11::text[], $12::float8[]
) AS u(partner_id, name, position, team, opponent, sport, away_team, home_team, kickoff,
	salary, roster_positions, projected_points)
ON CONFLICT (partner_id) DO UPDATE SET
	name             = EXCLUDED.name,
	position         = EXCLUDED.position,
	team             = EXCLUDED.team,
	opponent         = EXCLUDED.opponent,
	sport            = EXCLUDED.sport,
	away_team        = EXCLUDED.away_team,
	home_team        = EXCLUDED.home_team,
	kickoff          = EXCLUDED.kickoff,
	salary           = EXCLUDED.salary,
	roster_positions = EXCLUDED.roster_positions,
	projected_points = EXCLUDED.projected_points,
	ownership        = 0,
	status           = 'available',
	updated_at       = now()`

func (p players) UpsertRoster(ctx context.Context, rows []core.RosterRecord) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tag, err := p.q.Exec(ctx, upsertRosterSQL, rosterArgs(rows)...)
	if err != nil {
		return 0, wrapPgError("upsert roster", err)
	}
	return tag.RowsAffected(), nil
}

// rosterArgs builds the unnest arrays for upsertRosterSQL in placeholder
// order. Salaries travel as int8 so an out-of-range value fails in the
// database instead of wrapping.
func rosterArgs(rows []core.RosterRecord) []any {
	n := len(rows)
	var (
		ids, names, positions, teams, opponents = make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		sports, aways, homes, kickoffs, elig    = make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		salaries                                = make([]int64, n)
		points                                  = make([]float64, n)
	)
	for i, r := range rows {
		ids[i], names[i], positions[i], teams[i], opponents[i] = r.PartnerID, r.Name, r.Position, r.Team, r.Opponent
		sports[i], aways[i], homes[i], kickoffs[i], elig[i] = r.Sport, r.Game.Away, r.Game.Home, r.Game.Kickoff, r.RosterPositions
		salaries[i] = int64(r.Salary)
		points[i] = r.ProjectedPoints
	}
	return []any{
		ids, names, positions, teams, opponents, sports, aways, homes, kickoffs,
		salaries, elig, points,
	}
}

// upsertProjectionsSQL replaces projection-owned columns. Descriptive
// columns are written on insert only; secondary metrics absent from the
// file (NULL) keep their stored value. $17 is the reactivation keep-list.
const upsertProjectionsSQL = `
INSERT INTO players (
	partner_id, external_id, name, position, team, sport,
	projected_points, ownership, ceiling, floor, minutes,
	usage_rate, snap_count, target_share, rush_share, dvp_rank, status
)
SELECT u.partner_id, u.external_id, u.name, u.position, u.team, u.sport,
	u.projected_points, u.ownership, u.ceiling, u.floor, u.minutes,
	u.usage_rate, u.snap_count, u.target_share, u.rush_share, u.dvp_rank, 'available'
FROM unnest(
	$1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[],
	$7::float8[], $8::float8[], $9::float8[], $10::float8[], $11::float8[],
	$12::float8[], $13::float8[], $14::float8[], $15::float8[], $16::float8[]
) AS u(partner_id, external_id, name, position, team, sport,
	projected_points, ownership, ceiling, floor, minutes,
	usage_rate, snap_count, target_share, rush_share, dvp_rank)
ON CONFLICT (partner_id) DO UPDATE SET
	external_id      = COALESCE(NULLIF(EXCLUDED.external_id, ''), players.external_id),
	projected_points = EXCLUDED.projected_points,
	ownership        = EXCLUDED.ownership,
	ceiling          = EXCLUDED.ceiling,
	floor            = EXCLUDED.floor,
	minutes          = EXCLUDED.minutes,
	usage_rate       = COALESCE(EXCLUDED.usage_rate, players.usage_rate),
	snap_count       = COALESCE(EXCLUDED.snap_count, players.snap_count),
	target_share     = COALESCE(EXCLUDED.target_share, players.target_share),
	rush_share       = COALESCE(EXCLUDED.rush_share, players.rush_share),
	dvp_rank         = COALESCE(EXCLUDED.dvp_rank, players.dvp_rank),
	status           = CASE WHEN players.status = ANY($17::text[]) THEN players.status ELSE 'available' END,
	updated_at       = now()`

func (p players) UpsertProjections(ctx context.Context, rows []core.ProjectionRecord, policy core.ReactivationPolicy) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n := len(rows)
	var (
		ids, extIDs, names, positions, teams, sports = make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		points, owns, ceils, floors, mins            = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		usage, snaps, targets, rush, dvp             = make([]*float64, n), make([]*float64, n), make([]*float64, n), make([]*float64, n), make([]*float64, n)
	)
	for i, r := range rows {
		ids[i], extIDs[i], names[i], positions[i], teams[i], sports[i] = r.PartnerID, r.ExternalID, r.Name, r.Position, r.Team, r.Sport
		points[i], owns[i], ceils[i], floors[i], mins[i] = r.ProjectedPoints, r.Ownership, r.Ceiling, r.Floor, r.Minutes
		usage[i], snaps[i], targets[i], rush[i], dvp[i] = r.UsageRate, r.SnapCount, r.TargetShare, r.RushShare, r.DvpRank
	}

	tag, err := p.q.Exec(ctx, upsertProjectionsSQL,
		ids, extIDs, names, positions, teams, sports,
		points, owns, ceils, floors, mins,
		usage, snaps, targets, rush, dvp,
		statusStrings(policy.Keep),
	)
	if err != nil {
		return 0, wrapPgError("upsert projections", err)
	}
	return tag.RowsAffected(), nil
}

// playerWhere builds the WHERE clause for a filter. Args are appended in
// placeholder order.
func playerWhere(f core.PlayerFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Sport != "" {
		args = append(args, f.Sport)
		conds = append(conds, fmt.Sprintf("sport = $%d", len(args)))
	}
	if len(f.Status) > 0 {
		args = append(args, statusStrings(f.Status))
		conds = append(conds, fmt.Sprintf("status = ANY($%d::text[])", len(args)))
	}
	if f.MinSalary > 0 {
		args = append(args, f.MinSalary)
		conds = append(conds, fmt.Sprintf("salary >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (p players) ListPlayers(ctx context.Context, filter core.PlayerFilter) ([]core.Player, error) {
	where, args := playerWhere(filter)
	sql := "SELECT " + playerColumns + " FROM players" + where + " ORDER BY projected_points DESC, name, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapPgError("list players", err)
	}
	out, err := pgx.CollectRows(rows, scanPlayer)
	if err != nil {
		return nil, wrapPgError("list players", err)
	}
	return out, nil
}

func (p players) CountPlayers(ctx context.Context, filter core.PlayerFilter) (int64, error) {
	where, args := playerWhere(filter)
	var n int64
	if err := p.q.QueryRow(ctx, "SELECT count(*) FROM players"+where, args...).Scan(&n); err != nil {
		return 0, wrapPgError("count players", err)
	}
	return n, nil
}

func (p players) GetPlayer(ctx context.Context, partnerID string) (*core.Player, error) {
	rows, err := p.q.Query(ctx, "SELECT "+playerColumns+" FROM players WHERE partner_id = $1", partnerID)
	if err != nil {
		return nil, wrapPgError("get player", err)
	}
	player, err := pgx.CollectExactlyOneRow(rows, scanPlayer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrPlayerNotFound
	}
	if err != nil {
		return nil, wrapPgError("get player", err)
	}
	return &player, nil
}

func (p players) ClearPlayers(ctx context.Context) (int64, error) {
	tag, err := p.q.Exec(ctx, "DELETE FROM players")
	if err != nil {
		return 0, wrapPgError("clear players", err)
	}
	return tag.RowsAffected(), nil
}

func scanPlayer(row pgx.CollectableRow) (core.Player, error) {
	var (
		p         core.Player
		partnerID *string
		status    string
	)
	err := row.Scan(
		&p.ID, &partnerID, &p.ExternalID, &p.Name, &p.Position, &p.Team, &p.Opponent, &p.Sport,
		&p.HomeTeam, &p.AwayTeam, &p.Kickoff, &p.Salary, &p.RosterPositions, &p.ProjectedPoints, &p.Ownership,
		&p.Ceiling, &p.Floor, &p.Minutes, &p.UsageRate, &p.SnapCount, &p.TargetShare, &p.RushShare, &p.DvpRank,
		&status, &p.CreatedAt, &p.UpdatedAt,
	)
	if partnerID != nil {
		p.PartnerID = *partnerID
	}
	p.Status = core.PlayerStatus(status)
	return p, err
}

func statusStrings(statuses []core.PlayerStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
