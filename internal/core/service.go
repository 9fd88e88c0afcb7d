package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/repository"
)

const (
	// DefaultImportTimeout bounds a single preview or save.
	DefaultImportTimeout = 2 * time.Minute

	// DefaultMaxFileSize is the largest accepted upload (20MB).
	DefaultMaxFileSize int64 = 20 << 20

	// registerAttempts is how many random registrant ids Register tries
	// before giving up on collisions.
	registerAttempts = 3
)

// SheetSource reads spreadsheet rows from a remote sheet. *sheets.Client
// satisfies it.
type SheetSource interface {
	ReadRows(ctx context.Context, readRange string) ([][]ingest.Cell, error)
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	MaxFileSize   int64
	ImportTimeout time.Duration
	Limiter       *ImportLimiter

	// PreviewTTL bounds how long an unsaved preview can be confirmed.
	PreviewTTL time.Duration

	// Sheets is optional; without it PreviewSheet returns ErrSheetsDisabled.
	Sheets     SheetSource
	SheetRange string
}

// Service provides the check-in operations behind the HTTP handlers.
type Service struct {
	repo          repository.Repository
	limiter       *ImportLimiter
	sheets        SheetSource
	sheetRange    string
	maxFileSize   int64
	importTimeout time.Duration
	previews      *previewCache
}

// NewService creates a Service over repo.
func NewService(repo repository.Repository, opts Options) *Service {
	s := &Service{
		repo:          repo,
		limiter:       opts.Limiter,
		sheets:        opts.Sheets,
		sheetRange:    opts.SheetRange,
		maxFileSize:   opts.MaxFileSize,
		importTimeout: opts.ImportTimeout,
		previews:      newPreviewCache(opts.PreviewTTL),
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultImportWait)
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.sheetRange == "" {
		s.sheetRange = "Sheet1"
	}
	return s
}

// Limiter returns the import limiter, used for health reporting and drain.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// SheetsEnabled reports whether PreviewSheet can be used.
func (s *Service) SheetsEnabled() bool { return s.sheets != nil }

// Ping checks the repository connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// List returns participants matching q, newest first.
func (s *Service) List(ctx context.Context, q participant.Query) ([]participant.Participant, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if q.Search == "" && (q.Status == "" || q.Status == participant.StatusAll) {
		return list, nil
	}
	return participant.Filter(list, q), nil
}

// Stats summarizes every stored participant.
func (s *Service) Stats(ctx context.Context) (participant.Stats, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return participant.Stats{}, fmt.Errorf("list participants: %w", err)
	}
	return participant.Summarize(list), nil
}

// Families returns family groups matching q. A family is included when any
// member matches.
func (s *Service) Families(ctx context.Context, q participant.Query) ([]participant.Family, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	matched := make(map[string]bool)
	for _, p := range participant.Filter(list, q) {
		matched[p.RegistrantID] = true
	}
	var out []participant.Family
	for _, f := range participant.GroupFamilies(list) {
		if matched[f.RegistrantID] {
			out = append(out, f)
		}
	}
	return out, nil
}

// Create stores one participant.
func (s *Service) Create(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	opLogger(ctx, "create", "registrant_id", created.RegistrantID, "id", created.ID).Info("participant created")
	return created, nil
}

// CreateMany stores records in bulk, skipping identity conflicts.
func (s *Service) CreateMany(ctx context.Context, records []participant.Participant) (repository.BulkResult, error) {
	if len(records) == 0 {
		return repository.BulkResult{Created: []participant.Participant{}}, nil
	}
	res, err := s.repo.CreateMany(ctx, records)
	if err != nil {
		return repository.BulkResult{}, fmt.Errorf("create participants: %w", err)
	}
	opLogger(ctx, "create_many", "count", len(res.Created), "skipped", res.Skipped).Info("participants created")
	return res, nil
}

// Register validates a walk-up registration and stores it checked in.
// A fresh registrant id is drawn if the random one collides.
func (s *Service) Register(ctx context.Context, reg participant.Registration) (participant.Participant, error) {
	if err := reg.Validate(); err != nil {
		return participant.Participant{}, err
	}

	var lastErr error
	for range registerAttempts {
		p, err := s.Create(ctx, participant.FromRegistration(reg))
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return participant.Participant{}, err
		}
		lastErr = err
	}
	return participant.Participant{}, lastErr
}

// Update applies patch to every participant with the given identity.
// Unknown identities update nothing and are not an error.
func (s *Service) Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	n, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", id, err)
	}
	opLogger(ctx, "update", "identity", id.String(), "count", n).Info("participants updated")
	return n, nil
}

// CheckIn marks the participant with the given identity as checked in.
func (s *Service) CheckIn(ctx context.Context, id participant.Identity) (int64, error) {
	return s.Update(ctx, id, participant.CheckIn())
}

// CheckInFamily checks in every member sharing registrantID. Members are
// updated one by one; the first failure stops the loop and is returned
// along with the count already checked in.
func (s *Service) CheckInFamily(ctx context.Context, registrantID string) (int64, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}

	var total int64
	for _, m := range participant.Members(list, registrantID) {
		if m.CheckedIn {
			continue
		}
		n, err := s.repo.Update(ctx, m.Identity(), participant.CheckIn())
		if err != nil {
			return total, fmt.Errorf("check in %s: %w", m.Identity(), err)
		}
		total += n
	}
	opLogger(ctx, "checkin_family", "registrant_id", registrantID, "count", total).Info("family checked in")
	return total, nil
}

// Delete removes every participant with the given identity.
func (s *Service) Delete(ctx context.Context, id participant.Identity) (int64, error) {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", id, err)
	}
	opLogger(ctx, "delete", "identity", id.String(), "count", n).Info("participants deleted")
	return n, nil
}

// DeleteAll removes every participant.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all participants: %w", err)
	}
	opLogger(ctx, "delete_all", "count", n).Warn("all participants deleted")
	return n, nil
}

// Export writes the participants matching q in the given format.
func (s *Service) Export(ctx context.Context, w io.Writer, format ingest.Format, q participant.Query) error {
	list, err := s.List(ctx, q)
	if err != nil {
		return err
	}
	return writeSheet(w, format, list)
}

// Template writes the blank import template.
func (s *Service) Template(w io.Writer, format ingest.Format) error {
	return writeSheet(w, format, nil)
}

func writeSheet(w io.Writer, format ingest.Format, list []participant.Participant) error {
	switch format {
	case ingest.FormatCSV:
		return ingest.WriteCSV(w, list)
	case ingest.FormatXLSX:
		return ingest.WriteXLSX(w, list)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ParseFormat maps a format query parameter to an ingest.Format.
// The empty string selects fallback.
func ParseFormat(s string, fallback ingest.Format) (ingest.Format, error) {
	switch ingest.Format(s) {
	case "":
		return fallback, nil
	case ingest.FormatCSV, ingest.FormatXLSX:
		return ingest.Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}
