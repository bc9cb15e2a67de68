package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/secops/internal/config"
	"github.com/JonMunkholm/secops/internal/logging"
	"github.com/JonMunkholm/secops/internal/storage"
)

// Service runs bulk imports of anagraphic records against a store.
// A Service is safe for concurrent use; runs share no state besides the limiter.
type Service struct {
	store   storage.Store
	cfg     config.ImportConfig
	limiter *RunLimiter
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLimiter replaces the run limiter built from the configuration.
func WithLimiter(l *RunLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates a Service over store.
func NewService(store storage.Store, cfg config.ImportConfig, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg,
		limiter: NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limiter returns the run limiter, for status reporting and shutdown draining.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// ListKinds returns every registered kind definition.
func (s *Service) ListKinds() []KindDefinition {
	return All()
}

// Run dispatches req to Preview or Commit according to its mode.
// An empty mode is treated as preview.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	kind, err := ParseKind(req.RecordKind)
	if err != nil {
		return nil, err
	}

	mode := ModePreview
	if req.Mode != "" {
		if mode, err = ParseMode(req.Mode); err != nil {
			return nil, err
		}
	}

	out := &Outcome{Mode: mode}
	if mode == ModeCommit {
		out.Result, err = s.Commit(ctx, kind, req.Rows)
	} else {
		out.Preview, err = s.Preview(ctx, kind, req.Rows)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Preview classifies every row without writing anything.
func (s *Service) Preview(ctx context.Context, kind Kind, rows []RawRow) (*PreviewReport, error) {
	start := time.Now()

	ctx, def, release, err := s.begin(ctx, kind, ModePreview, rows)
	if err != nil {
		return nil, err
	}
	defer release()

	reports, err := s.analyze(ctx, def, rows)
	if err != nil {
		return nil, err
	}

	preview := &PreviewReport{
		Kind:             kind,
		Report:           reports,
		Summary:          summarize(reports),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}

	logging.WithFields(ctx, "kind", kind, "mode", ModePreview).Info("import preview completed",
		"rows", preview.Summary.TotalRows,
		"new", preview.Summary.NewRows,
		"update", preview.Summary.UpdateRows,
		"duplicate", preview.Summary.DuplicateRows,
		"error", preview.Summary.ErrorRows,
		"invalid_fk", preview.Summary.InvalidFKRows,
		"duration", time.Since(start),
	)

	return preview, nil
}

// Commit classifies every row and applies the inserts and updates.
// Per-row failures are counted in the result; only request validation and
// snapshot failures are returned as errors.
func (s *Service) Commit(ctx context.Context, kind Kind, rows []RawRow) (*RunResult, error) {
	start := time.Now()

	ctx, def, release, err := s.begin(ctx, kind, ModeCommit, rows)
	if err != nil {
		return nil, err
	}
	defer release()

	reports, err := s.analyze(ctx, def, rows)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(ctx, "kind", kind, "mode", ModeCommit)
	result := &RunResult{Kind: kind}
	errs := newErrorList(s.cfg.MaxErrorMessages)

	for i := range reports {
		r := &reports[i]

		switch r.Status {
		case StatusError, StatusInvalidFK:
			result.Errors++
			errs.add(r.Row, r.Message)
			continue
		case StatusDuplicate:
			result.Duplicates++
			continue
		}

		if err := s.write(ctx, def, r); err != nil {
			var writeErr *RowWriteError
			if !errors.As(err, &writeErr) {
				writeErr = &RowWriteError{Row: r.Row, Err: err}
			}
			logger.Warn("row write failed", "row", r.Row, "status", r.Status, "error", writeErr.Err)

			r.Status = StatusError
			r.Message = writeErr.Error()
			result.Errors++
			errs.add(r.Row, r.Message)
			continue
		}

		if r.Status == StatusNew {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	result.ErrorMessages = errs.list()
	result.Message = fmt.Sprintf("Import completed: %d inserted, %d updated, %d duplicates, %d errors",
		result.Inserted, result.Updated, result.Duplicates, result.Errors)

	logger.Info("import commit completed",
		"rows", len(reports),
		"inserted", result.Inserted,
		"updated", result.Updated,
		"duplicates", result.Duplicates,
		"errors", result.Errors,
		"duration", time.Since(start),
	)

	return result, nil
}

// begin validates the request, takes a run slot and prepares the run context.
// The returned release func must be called when the run ends.
func (s *Service) begin(ctx context.Context, kind Kind, mode Mode, rows []RawRow) (context.Context, KindDefinition, func(), error) {
	def, err := MustGet(kind)
	if err != nil {
		return ctx, KindDefinition{}, nil, err
	}
	if len(rows) == 0 {
		return ctx, KindDefinition{}, nil, ErrNoRows
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return ctx, KindDefinition{}, nil, fmt.Errorf("%w: %d rows, limit is %d", ErrTooManyRows, len(rows), s.cfg.MaxRows)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return ctx, KindDefinition{}, nil, err
	}

	cancel := context.CancelFunc(func() {})
	if s.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
	}
	ctx = logging.WithRunID(ctx, uuid.NewString())

	logging.WithFields(ctx, "kind", kind, "mode", mode).Info("import started", "rows", len(rows))

	release := func() {
		cancel()
		s.limiter.Release()
	}
	return ctx, def, release, nil
}

// analyze loads the snapshot and classifies every row, in input order.
func (s *Service) analyze(ctx context.Context, def KindDefinition, rows []RawRow) ([]RowReport, error) {
	snap, err := LoadSnapshot(ctx, s.store, def)
	if err != nil {
		return nil, err
	}

	reports := make([]RowReport, len(rows))
	for i, raw := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("import interrupted at row %d: %w", i+1, err)
		}
		reports[i] = s.analyzeRow(ctx, def, snap, i+1, raw)
	}
	return reports, nil
}

// analyzeRow runs mapper, classifier and validator for one row.
func (s *Service) analyzeRow(ctx context.Context, def KindDefinition, snap *Snapshot, row int, raw RawRow) RowReport {
	report := RowReport{
		Row:           row,
		OriginalRow:   raw,
		UpdatedFields: []string{},
	}

	rec, err := MapRow(ctx, def, raw, s.store)
	if err != nil {
		report.Status = StatusError
		report.Message = err.Error()
		return report
	}
	report.ProcessedData = rec

	c := Classify(def, rec, snap)
	report.Status = c.Status
	report.Message = c.Message
	report.ID = c.ExistingID
	if len(c.ChangedFields) > 0 {
		report.UpdatedFields = c.ChangedFields
	}

	if err := ValidateReferences(def, rec, snap); err != nil {
		report.Status = StatusInvalidFK
		report.Message = err.Error()
		report.UpdatedFields = []string{}
	}

	return report
}

// write applies one NEW or UPDATE row and records the resulting id.
func (s *Service) write(ctx context.Context, def KindDefinition, r *RowReport) error {
	if err := ctx.Err(); err != nil {
		return &RowWriteError{Row: r.Row, Err: err}
	}

	now := s.now().UTC()

	switch r.Status {
	case StatusNew:
		rec := r.ProcessedData.Clone()
		if IsBlank(rec[FieldID]) {
			delete(rec, FieldID)
		}
		rec[FieldCreatedAt] = now
		rec[FieldUpdatedAt] = now

		id, err := s.store.Insert(ctx, def.Info.Table, rec)
		if err != nil {
			return &RowWriteError{Row: r.Row, Err: err}
		}
		r.ID = id
		return nil

	case StatusUpdate:
		rec := r.ProcessedData.Clone()
		delete(rec, FieldID)
		delete(rec, FieldCreatedAt)
		rec[FieldUpdatedAt] = now

		if err := s.store.UpdateByID(ctx, def.Info.Table, r.ID, rec); err != nil {
			return &RowWriteError{Row: r.Row, Err: err}
		}
		return nil

	default:
		return &RowWriteError{Row: r.Row, Err: fmt.Errorf("status %s is not writable", r.Status)}
	}
}

// summarize counts reports per status.
func summarize(reports []RowReport) PreviewSummary {
	sum := PreviewSummary{TotalRows: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case StatusNew:
			sum.NewRows++
		case StatusUpdate:
			sum.UpdateRows++
		case StatusDuplicate:
			sum.DuplicateRows++
		case StatusError:
			sum.ErrorRows++
		case StatusInvalidFK:
			sum.InvalidFKRows++
		}
	}
	return sum
}

// errorList collects row-referenced messages up to a cap.
type errorList struct {
	max      int
	messages []string
	dropped  int
}

func newErrorList(max int) *errorList {
	if max <= 0 {
		max = 20
	}
	return &errorList{max: max}
}

func (l *errorList) add(row int, msg string) {
	if len(l.messages) >= l.max {
		l.dropped++
		return
	}
	l.messages = append(l.messages, fmt.Sprintf("row %d: %s", row, msg))
}

// list returns the collected messages, with a trailing summary of dropped ones.
func (l *errorList) list() []string {
	out := make([]string, 0, len(l.messages)+1)
	out = append(out, l.messages...)
	if l.dropped > 0 {
		out = append(out, fmt.Sprintf("... and %d more errors", l.dropped))
	}
	return out
}
