// Package core provides the business logic for slate ingestion and lineup export.
// This package has no storage or transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// PlayerStatus is the availability of a player for the current slate.
type PlayerStatus string

const (
	StatusAvailable    PlayerStatus = "available"
	StatusQuestionable PlayerStatus = "questionable"
	StatusOut          PlayerStatus = "out"
	StatusUnavailable  PlayerStatus = "unavailable"
)

// Valid reports whether s is one of the known statuses.
func (s PlayerStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusQuestionable, StatusOut, StatusUnavailable:
		return true
	}
	return false
}

// FileType identifies which normalization profile an upload uses.
type FileType string

const (
	FileRoster      FileType = "roster"
	FileProjections FileType = "projections"
	FileAnalysis    FileType = "analysis"
)

// ParseFileType converts a user supplied selector to a FileType.
// Returns false for empty or unknown values.
func ParseFileType(s string) (FileType, bool) {
	switch FileType(normalizeKey(s)) {
	case FileRoster:
		return FileRoster, true
	case FileProjections, "projection":
		return FileProjections, true
	case FileAnalysis, "notes":
		return FileAnalysis, true
	}
	return "", false
}

// Player is the canonical athlete record.
//
// PartnerID is the contest platform id and the only merge key between uploads.
// Pointer metrics are nil until a projections upload supplies them.
type Player struct {
	ID              int64        `json:"id"`
	PartnerID       string       `json:"partnerId"`
	ExternalID      string       `json:"externalId,omitempty"`
	Name            string       `json:"name"`
	Position        string       `json:"position"`
	Team            string       `json:"team"`
	Opponent        string       `json:"opponent"`
	Sport           string       `json:"sport"`
	HomeTeam        string       `json:"homeTeam,omitempty"`
	AwayTeam        string       `json:"awayTeam,omitempty"`
	Kickoff         string       `json:"kickoff,omitempty"`
	Salary          int          `json:"salary"`
	RosterPositions string       `json:"rosterPositions"`
	ProjectedPoints float64      `json:"projectedPoints"`
	Ownership       float64      `json:"ownership"`
	Ceiling         *float64     `json:"ceiling,omitempty"`
	Floor           *float64     `json:"floor,omitempty"`
	Minutes         *float64     `json:"minutes,omitempty"`
	UsageRate       *float64     `json:"usageRate,omitempty"`
	SnapCount       *float64     `json:"snapCount,omitempty"`
	TargetShare     *float64     `json:"targetShare,omitempty"`
	RushShare       *float64     `json:"rushShare,omitempty"`
	DvpRank         *float64     `json:"dvpRank,omitempty"`
	Status          PlayerStatus `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// RosterRow is one normalized line of the contest platform's salary template.
type RosterRow struct {
	PartnerID      string
	Name           string
	NameWithID     string
	Position       string
	RosterPosition string
	Salary         int
	Team           string
	GameInfo       string
	AvgPoints      float64
	Sport          string
}

// ProjectionRow is one normalized line of the analytics provider's feed.
// Secondary metrics keep nil when the column is absent so an upload that
// omits them does not overwrite stored values with zero.
type ProjectionRow struct {
	PartnerID   string
	NameWithID  string
	ExternalID  string
	Name        string
	Position    string
	Team        string
	Sport       string
	Points      float64
	Ownership   float64
	Ceiling     float64
	Floor       float64
	Minutes     float64
	UsageRate   *float64
	SnapCount   *float64
	TargetShare *float64
	RushShare   *float64
	DvpRank     *float64
}

// GameInfo is the decomposed "AWAY@HOME kickoff" field of a roster row.
type GameInfo struct {
	Away    string
	Home    string
	Kickoff string
}

// RosterRecord is a roster row after identity resolution, ready to merge.
type RosterRecord struct {
	PartnerID       string
	Name            string
	Position        string
	Team            string
	Opponent        string
	Sport           string
	Game            GameInfo
	Salary          int
	RosterPositions string
	ProjectedPoints float64
}

// ProjectionRecord is a projection row after identity resolution, ready to merge.
type ProjectionRecord struct {
	PartnerID       string
	ExternalID      string
	Name            string
	Position        string
	Team            string
	Sport           string
	ProjectedPoints float64
	Ownership       float64
	Ceiling         float64
	Floor           float64
	Minutes         float64
	UsageRate       *float64
	SnapCount       *float64
	TargetShare     *float64
	RushShare       *float64
	DvpRank         *float64
}

// FileUpload is the ledger entry for one ingestion attempt.
type FileUpload struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	FileType    FileType   `json:"fileType"`
	Content     string     `json:"content,omitempty"`
	Processed   bool       `json:"processed"`
	RowCount    int        `json:"rowCount"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// EntryType is the contest format that bounds how many lineups are generated.
type EntryType string

const (
	EntrySingle EntryType = "single"
	Entry3Max   EntryType = "3-max"
	Entry20Max  EntryType = "20-max"
)

// Correlation is the stacking strength requested from the optimizer.
type Correlation string

const (
	CorrelationWeak   Correlation = "weak"
	CorrelationMedium Correlation = "medium"
	CorrelationStrong Correlation = "strong"
)

// OptimizationSettings is one immutable configuration snapshot per generation request.
type OptimizationSettings struct {
	ID                  string      `json:"id"`
	EntryType           EntryType   `json:"entryType"`
	Sport               string      `json:"sport"`
	MaxSalary           int         `json:"maxSalary"`
	MaxOwnership        float64     `json:"maxOwnership"`
	MinValue            float64     `json:"minValue"`
	CorrelationStrength Correlation `json:"correlationStrength"`
	LineupCount         int         `json:"lineupCount"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// Lineup is an optimizer output, read here for export.
type Lineup struct {
	ID              string         `json:"id"`
	SettingsID      string         `json:"settingsId,omitempty"`
	Sport           string         `json:"sport"`
	TotalSalary     int            `json:"totalSalary"`
	ProjectedPoints float64        `json:"projectedPoints"`
	TotalOwnership  float64        `json:"totalOwnership"`
	CreatedAt       time.Time      `json:"createdAt"`
	Players         []LineupPlayer `json:"players"`
}

// LineupPlayer associates a lineup with a player, in stored order.
type LineupPlayer struct {
	LineupID  string `json:"lineupId"`
	PlayerID  int64  `json:"playerId"`
	Ordinal   int    `json:"ordinal"`
	Name      string `json:"name"`
	PartnerID string `json:"partnerId"`
}

// GeneratedLineup is one summary row returned by the optimizer.
type GeneratedLineup struct {
	LineupID        string  `json:"lineupId"`
	TotalSalary     int     `json:"totalSalary"`
	ProjectedPoints float64 `json:"projectedPoints"`
	TotalOwnership  float64 `json:"totalOwnership"`
}

// PlayerFilter narrows player listings and counts.
// Zero values mean "any".
type PlayerFilter struct {
	Sport     string
	Status    []PlayerStatus
	MinSalary int
	Limit     int
}

// IngestResult summarizes one processed file.
type IngestResult struct {
	UploadID    string        `json:"uploadId"`
	FileName    string        `json:"fileName"`
	FileType    FileType      `json:"fileType"`
	TotalRows   int           `json:"totalRows"`
	Merged      int64         `json:"merged"`
	Dropped     int           `json:"dropped"`
	Collapsed   int           `json:"collapsed"`
	Deactivated int64         `json:"deactivated"`
	ParseErrors int           `json:"parseErrors"`
	Duration    time.Duration `json:"duration"`
}

// PlayerStore is the keyed player collection the engine merges into.
//
// UpsertRoster and UpsertProjections must be field-level upserts on
// partner_id: only the owning group's columns change on conflict.
type PlayerStore interface {
	MarkUnavailableExcept(ctx context.Context, keep []PlayerStatus) (int64, error)
	UpsertRoster(ctx context.Context, rows []RosterRecord) (int64, error)
	UpsertProjections(ctx context.Context, rows []ProjectionRecord, policy ReactivationPolicy) (int64, error)
	ListPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error)
	CountPlayers(ctx context.Context, filter PlayerFilter) (int64, error)
	GetPlayer(ctx context.Context, partnerID string) (*Player, error)
	ClearPlayers(ctx context.Context) (int64, error)
}

// TxRunner runs fn against a store view bound to a single transaction.
// Stores that cannot offer atomicity run fn directly.
type TxRunner interface {
	InTx(ctx context.Context, fn func(PlayerStore) error) error
}

// LedgerStore persists FileUpload entries.
type LedgerStore interface {
	InsertUpload(ctx context.Context, u FileUpload) error
	MarkUploadProcessed(ctx context.Context, id string, rows int, at time.Time) error
	MarkUploadFailed(ctx context.Context, id string, reason string) error
	GetUpload(ctx context.Context, id string) (*FileUpload, error)
	ListUploads(ctx context.Context, limit int) ([]FileUpload, error)
	DeleteUpload(ctx context.Context, id string) (bool, error)
	PruneProcessedUploads(ctx context.Context, before time.Time) (int64, error)
}

// SettingsStore persists OptimizationSettings snapshots.
type SettingsStore interface {
	InsertSettings(ctx context.Context, s OptimizationSettings) error
	GetSettings(ctx context.Context, id string) (*OptimizationSettings, error)
}

// LineupStore persists and reads optimizer output.
type LineupStore interface {
	SaveLineup(ctx context.Context, l Lineup) error
	GetLineups(ctx context.Context, ids []string) ([]Lineup, error)
	ListLineupsBySettings(ctx context.Context, settingsID string) ([]Lineup, error)
}

// Store bundles every persistence concern the service needs.
type Store interface {
	PlayerStore
	TxRunner
	LedgerStore
	SettingsStore
	LineupStore
	Ping(ctx context.Context) error
}
