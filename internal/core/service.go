package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/slate/internal/logging"
)

// UploadTimeout bounds one file's processing once it has started.
var UploadTimeout = 2 * time.Minute

// ResetTimeout is the maximum duration for an administrative clear.
var ResetTimeout = 30 * time.Second

// maxLoggedParseErrors caps how many cell errors are logged per file.
const maxLoggedParseErrors = 10

// Service ties the pipeline together for every frontend (HTTP, CLI, tests).
type Service struct {
	store     Store
	catalog   *Catalog
	engine    *Engine
	ledger    *Ledger
	generator *Generator
	exporter  *Exporter
	limiter   *UploadLimiter
	metrics   *Metrics
}

// ServiceOptions configures optional collaborators. Zero values are valid.
type ServiceOptions struct {
	Catalog   *Catalog
	Optimizer Optimizer
	Policy    ReactivationPolicy
	Limiter   *UploadLimiter
	Metrics   *Metrics
}

// NewService creates a new Service instance.
func NewService(store Store, opts ServiceOptions) *Service {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}

	return &Service{
		store:     store,
		catalog:   catalog,
		engine:    NewEngine(store, opts.Policy),
		ledger:    NewLedger(store),
		generator: NewGenerator(store, opts.Optimizer, catalog),
		exporter:  NewExporter(catalog),
		limiter:   limiter,
		metrics:   opts.Metrics,
	}
}

// Catalog returns the sport rules in use.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Ledger returns the upload ledger.
func (s *Service) Ledger() *Ledger { return s.ledger }

// Limiter returns the upload limiter.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// Metrics returns the metrics recorder, which may be nil.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// IngestRequest is one file handed to the pipeline.
type IngestRequest struct {
	Filename string
	Data     []byte
	Type     string // explicit file type; empty falls back to the filename
	Sport    string // sport tag; empty infers it from roster positions
}

// Ingest processes one uploaded file end to end.
//
// The ledger entry is committed before any player mutation. Once processing
// starts it is detached from ctx cancellation and bounded by UploadTimeout,
// so a dropped client cannot leave a merge half applied. On failure the entry
// stays unprocessed and the error is returned for a whole-file retry.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	fileType, err := ResolveFileType(req.Type, req.Filename)
	if err != nil {
		return nil, err
	}
	if int64(len(req.Data)) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), UploadTimeout)
	defer cancel()

	start := time.Now()
	id, err := s.ledger.Record(workCtx, req.Filename, fileType, string(req.Data))
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(ctx,
		"upload_id", id,
		"file", req.Filename,
		"file_type", fileType,
	)
	logger.Info("ingest started", "bytes", len(req.Data))

	result := &IngestResult{UploadID: id, FileName: req.Filename, FileType: fileType}
	err = s.process(workCtx, req, fileType, result, logger)
	result.Duration = time.Since(start)
	s.metrics.RecordIngest(fileType, result, err)

	if err != nil {
		if markErr := s.ledger.MarkFailed(workCtx, id, err); markErr != nil {
			logger.Error("ledger update failed", "error", markErr)
		}
		logger.Error("ingest failed", "error", err, "duration_ms", result.Duration.Milliseconds())
		return result, err
	}

	if err := s.ledger.MarkProcessed(workCtx, id, int(result.Merged)); err != nil {
		logger.Error("ledger update failed", "error", err)
		return result, err
	}

	logger.Info("ingest completed",
		"rows", result.TotalRows,
		"merged", result.Merged,
		"dropped", result.Dropped,
		"collapsed", result.Collapsed,
		"deactivated", result.Deactivated,
		"parse_errors", result.ParseErrors,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (s *Service) process(ctx context.Context, req IngestRequest, fileType FileType, result *IngestResult, logger *slog.Logger) error {
	if fileType == FileAnalysis {
		// Notes are kept on the ledger entry; nothing merges.
		return nil
	}

	profile, ok := GetProfile(fileType)
	if !ok {
		return fmt.Errorf("no profile registered for %s", fileType)
	}

	records, err := ReadRecords(req.Filename, req.Data)
	if err != nil {
		return err
	}
	table := LocateTable(records, profile)

	var (
		stats     MergeStats
		parseErrs []*ParseError
	)
	switch fileType {
	case FileRoster:
		var rows []RosterRow
		rows, parseErrs = NormalizeRoster(table, profile)
		result.TotalRows = len(rows)
		stats, err = s.engine.MergeRoster(ctx, ResolveRoster(rows, req.Sport, s.catalog))
	case FileProjections:
		var rows []ProjectionRow
		rows, parseErrs = NormalizeProjections(table, profile)
		result.TotalRows = len(rows)
		stats, err = s.engine.MergeProjections(ctx, ResolveProjections(rows, req.Sport))
	default:
		return fmt.Errorf("unsupported file type %s", fileType)
	}

	result.ParseErrors = len(parseErrs)
	for i, pe := range parseErrs {
		if i == maxLoggedParseErrors {
			logger.Warn("further parse errors suppressed", "remaining", len(parseErrs)-i)
			break
		}
		logger.Warn("cell defaulted", "line", pe.Line, "column", pe.Column, "value", pe.Value)
	}

	result.Merged = stats.Merged
	result.Dropped = stats.Dropped
	result.Collapsed = stats.Collapsed
	result.Deactivated = stats.Deactivated
	return err
}

// ListUploads returns recent ledger entries.
func (s *Service) ListUploads(ctx context.Context, limit int) ([]FileUpload, error) {
	return s.ledger.List(ctx, limit)
}

// GetUpload returns one ledger entry.
func (s *Service) GetUpload(ctx context.Context, id string) (*FileUpload, error) {
	return s.ledger.Get(ctx, id)
}

// RemoveUpload deletes a ledger entry. Merged players are unaffected.
func (s *Service) RemoveUpload(ctx context.Context, id string) error {
	return s.ledger.Remove(ctx, id)
}

// ListPlayers returns players matching filter.
func (s *Service) ListPlayers(ctx context.Context, filter PlayerFilter) ([]Player, error) {
	return s.store.ListPlayers(ctx, filter)
}

// GetPlayer returns one player by partner id.
func (s *Service) GetPlayer(ctx context.Context, partnerID string) (*Player, error) {
	return s.store.GetPlayer(ctx, partnerID)
}

// ClearPlayers hard-deletes every player. This is the only path that
// removes players rather than changing their status.
func (s *Service) ClearPlayers(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	n, err := s.store.ClearPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear players: %w", err)
	}
	logging.FromContext(ctx).Warn("player pool cleared", "deleted", n)
	return n, nil
}

// ValidateSettings checks a settings request without persisting it.
func (s *Service) ValidateSettings(settings OptimizationSettings) (OptimizationSettings, error) {
	return s.generator.Validate(settings)
}

// Generate validates settings, checks the pool and calls the optimizer.
func (s *Service) Generate(ctx context.Context, settings OptimizationSettings) (*GenerateResult, error) {
	res, err := s.generator.Generate(ctx, settings)
	s.metrics.RecordGeneration(err)
	return res, err
}

// ExportLineups writes the named lineups for sport in stored order.
func (s *Service) ExportLineups(ctx context.Context, w io.Writer, sport string, lineupIDs []string) error {
	if _, err := s.catalog.Get(sport); err != nil {
		return err
	}
	lineups, err := s.store.GetLineups(ctx, lineupIDs)
	if err != nil {
		return fmt.Errorf("load lineups: %w", err)
	}
	return s.exporter.Write(w, sport, lineups)
}

// ExportSettingsLineups writes every lineup produced for a settings snapshot.
func (s *Service) ExportSettingsLineups(ctx context.Context, w io.Writer, settingsID string) (string, error) {
	settings, err := s.store.GetSettings(ctx, settingsID)
	if err != nil {
		return "", err
	}
	lineups, err := s.store.ListLineupsBySettings(ctx, settingsID)
	if err != nil {
		return "", fmt.Errorf("load lineups: %w", err)
	}
	return settings.Sport, s.exporter.Write(w, settings.Sport, lineups)
}

// ImportLineups stores lineups produced outside a Generate call, such as a
// saved optimizer result. Players given only by partner id are linked to the
// current pool; ids missing from the pool keep their name token. Lineups are
// saved in order and the count saved before any failure is returned.
func (s *Service) ImportLineups(ctx context.Context, lineups []Lineup) (int, error) {
	for i, l := range lineups {
		if err := s.checkLineup(l); err != nil {
			return 0, fmt.Errorf("lineup %d: %w", i+1, err)
		}
	}

	for i, l := range lineups {
		players := make([]LineupPlayer, len(l.Players))
		for j, lp := range l.Players {
			if lp.PlayerID == 0 && lp.PartnerID != "" {
				p, err := s.store.GetPlayer(ctx, lp.PartnerID)
				switch {
				case err == nil:
					lp.PlayerID = p.ID
				case !errors.Is(err, ErrPlayerNotFound):
					return i, fmt.Errorf("link lineup %s: %w", l.ID, err)
				}
			}
			players[j] = lp
		}
		l.Sport = strings.ToLower(strings.TrimSpace(l.Sport))
		l.Players = players

		if err := s.store.SaveLineup(ctx, l); err != nil {
			return i, fmt.Errorf("save lineup %s: %w", l.ID, err)
		}
	}
	slog.Info("lineups imported", "count", len(lineups))
	return len(lineups), nil
}

func (s *Service) checkLineup(l Lineup) error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidLineup)
	}
	if len(l.Players) == 0 {
		return fmt.Errorf("%w: %s has no players", ErrInvalidLineup, l.ID)
	}
	rules, err := s.catalog.Get(l.Sport)
	if err != nil {
		return err
	}
	if len(l.Players) > len(rules.Slots) {
		return fmt.Errorf("%w: %s has %d players for %d slots", ErrInvalidLineup, l.ID, len(l.Players), len(rules.Slots))
	}
	return nil
}

// PruneLedger removes processed ledger entries older than retention.
func (s *Service) PruneLedger(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.ledger.Prune(ctx, retention)
	if err != nil {
		return 0, fmt.Errorf("prune ledger: %w", err)
	}
	s.metrics.RecordPrune(n)
	return n, nil
}
