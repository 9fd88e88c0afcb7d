// Package store keeps a client-side cache of participants synchronized with
// the participant API. Every write goes to the API first; the local set is
// changed only after the call succeeds.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/checkin/internal/participant"
)

// API is the remote participant service. *client.Client satisfies it.
type API interface {
	List(ctx context.Context) ([]participant.Participant, error)
	Create(ctx context.Context, p participant.Participant) (participant.Participant, error)
	CreateMany(ctx context.Context, records []participant.Participant) (participant.BulkResult, error)
	Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error)
	Delete(ctx context.Context, id participant.Identity) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Status is the load state of the store.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// familyConcurrency bounds the parallel updates issued by CheckInFamily.
const familyConcurrency = 8

// Store is the participant cache. It is safe for concurrent use.
type Store struct {
	api API

	mu           sync.RWMutex
	participants []participant.Participant
	status       Status
	err          error
}

// New creates an empty, idle store backed by api.
func New(api API) *Store {
	return &Store{api: api}
}

// FetchAll replaces the local set with the server's. On failure the prior
// set is kept and the error is recorded.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	list, err := s.api.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusError
		s.err = fmt.Errorf("fetch participants: %w", err)
		return s.err
	}
	s.participants = list
	s.status = StatusReady
	s.err = nil
	return nil
}

// AddOne creates p and appends the stored record.
func (s *Store) AddOne(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	created, err := s.api.Create(ctx, p)
	if err != nil {
		return participant.Participant{}, s.fail("add participant", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, created)
	s.succeed()
	return created, nil
}

// AddMany creates records in bulk and appends those the server stored.
func (s *Store) AddMany(ctx context.Context, records []participant.Participant) (participant.BulkResult, error) {
	res, err := s.api.CreateMany(ctx, records)
	if err != nil {
		return participant.BulkResult{}, s.fail("add participants", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, res.Created...)
	s.succeed()
	return res, nil
}

// Update patches every participant with identity id.
func (s *Store) Update(ctx context.Context, id participant.Identity, patch participant.Patch) (int64, error) {
	n, err := s.api.Update(ctx, id, patch)
	if err != nil {
		return 0, s.fail("update "+id.String(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(id, patch)
	s.succeed()
	return n, nil
}

// CheckInOne checks in the first participant with registrantID. It reports
// false when no such participant is cached.
func (s *Store) CheckInOne(ctx context.Context, registrantID string) (bool, error) {
	p, ok := s.Find(registrantID)
	if !ok {
		return false, nil
	}
	if _, err := s.Update(ctx, p.Identity(), participant.CheckIn()); err != nil {
		return true, err
	}
	return true, nil
}

// MemberResult is the outcome of checking in one family member.
type MemberResult struct {
	Identity participant.Identity
	Err      error
}

// FamilyCheckIn reports a family check-in member by member.
type FamilyCheckIn struct {
	RegistrantID string
	Members      []MemberResult
}

// Succeeded counts the members checked in.
func (f FamilyCheckIn) Succeeded() int {
	n := 0
	for _, m := range f.Members {
		if m.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the members whose update failed.
func (f FamilyCheckIn) Failed() []MemberResult {
	var out []MemberResult
	for _, m := range f.Members {
		if m.Err != nil {
			out = append(out, m)
		}
	}
	return out
}

// CheckInFamily checks in every cached member sharing registrantID. One
// update per member is issued concurrently and all are awaited. Members
// whose update succeeded are marked locally; the returned error joins the
// failures and is nil when every member succeeded.
func (s *Store) CheckInFamily(ctx context.Context, registrantID string) (FamilyCheckIn, error) {
	members := s.Family(registrantID)
	result := FamilyCheckIn{
		RegistrantID: registrantID,
		Members:      make([]MemberResult, len(members)),
	}
	if len(members) == 0 {
		return result, nil
	}

	var g errgroup.Group
	g.SetLimit(familyConcurrency)
	for i, m := range members {
		result.Members[i].Identity = m.Identity()
		g.Go(func() error {
			if _, err := s.api.Update(ctx, m.Identity(), participant.CheckIn()); err != nil {
				result.Members[i].Err = fmt.Errorf("check in %s: %w", m.Identity(), err)
			}
			return nil
		})
	}
	g.Wait()

	var errs []error
	s.mu.Lock()
	for _, m := range result.Members {
		if m.Err != nil {
			errs = append(errs, m.Err)
			continue
		}
		s.applyLocked(m.Identity, participant.CheckIn())
	}
	err := errors.Join(errs...)
	if err != nil {
		s.status = StatusError
		s.err = err
	} else {
		s.succeed()
	}
	s.mu.Unlock()

	slog.Debug("family check-in",
		"registrant_id", registrantID,
		"members", len(members),
		"failed", len(errs),
	)
	return result, err
}

// RemoveOne deletes every participant with identity id.
func (s *Store) RemoveOne(ctx context.Context, id participant.Identity) (int64, error) {
	n, err := s.api.Delete(ctx, id)
	if err != nil {
		return 0, s.fail("remove "+id.String(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = slices.DeleteFunc(s.participants, id.Matches)
	s.succeed()
	return n, nil
}

// ClearAll deletes every participant.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.api.DeleteAll(ctx)
	if err != nil {
		return 0, s.fail("clear participants", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = nil
	s.succeed()
	return n, nil
}

// Participants returns a copy of the cached set.
func (s *Store) Participants() []participant.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.participants)
}

// Find returns the first cached participant with registrantID.
func (s *Store) Find(registrantID string) (participant.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.RegistrantID == registrantID {
			return p, true
		}
	}
	return participant.Participant{}, false
}

// Family returns the cached members sharing registrantID.
func (s *Store) Family(registrantID string) []participant.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return participant.Members(s.participants, registrantID)
}

// Filter returns the cached participants matching q.
func (s *Store) Filter(q participant.Query) []participant.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return participant.Filter(s.participants, q)
}

// Families groups the cached set by registrant id.
func (s *Store) Families() []participant.Family {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return participant.GroupFamilies(s.participants)
}

// Stats summarizes the cached set.
func (s *Store) Stats() participant.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return participant.Summarize(s.participants)
}

// Status returns the load state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the last recorded error, or nil after a successful call.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// fail records a failed API call and returns the wrapped error.
func (s *Store) fail(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	s.mu.Lock()
	s.status = StatusError
	s.err = err
	s.mu.Unlock()
	return err
}

// succeed clears a recorded error. Callers hold s.mu.
func (s *Store) succeed() {
	s.err = nil
	if s.status == StatusError {
		s.status = StatusReady
	}
}

func (s *Store) applyLocked(id participant.Identity, patch participant.Patch) {
	for i := range s.participants {
		if id.Matches(s.participants[i]) {
			patch.Apply(&s.participants[i])
		}
	}
}
