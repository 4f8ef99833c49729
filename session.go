package tierguard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/validate"
)

// Session holds uncommitted changes. Pending changes are invisible to
// other sessions until committed. A Session is safe for concurrent use.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	engine     *Engine
	mu         sync.Mutex
	queue      *change.Queue
	committing bool
	lastUsed   time.Time
}

// CommitOptions controls CommitAll.
type CommitOptions struct {
	// AcknowledgeWarnings lets a commit proceed past warnings.
	AcknowledgeWarnings bool `json:"acknowledge_warnings"`

	// SkipValidation bypasses validation and the actor check.
	SkipValidation bool `json:"skip_validation"`
}

// CommitReport is the outcome of CommitAll.
type CommitReport struct {
	SessionID string `json:"session_id"`

	// Issues are the validation issues attributable to the pending set.
	Issues []validate.Issue `json:"issues,omitempty"`

	Committed []change.Change `json:"committed"`
	Remaining []change.Change `json:"remaining"`
	Results   []*ApplyResult  `json:"results,omitempty"`
}

// OpenSession starts a new change session. Idle sessions are dropped on
// the way.
func (e *Engine) OpenSession() *Session {
	now := e.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		engine:    e,
		queue:     change.NewQueue(),
		lastUsed:  now,
	}
	e.sessMu.Lock()
	e.evictIdleLocked(now)
	e.sessions[s.ID] = s
	e.sessMu.Unlock()
	return s
}

// Session returns an open session and marks it used. A session idle for
// longer than Config.SessionIdleTimeout is gone.
func (e *Engine) Session(sessionID string) (*Session, error) {
	now := e.now()
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	s, ok := e.sessions[sessionID]
	if ok && s.idle(now, e.config.SessionIdleTimeout) {
		delete(e.sessions, sessionID)
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.touch(now)
	return s, nil
}

// CloseSession drops a session and its pending changes. It reports whether
// the session was open.
func (e *Engine) CloseSession(sessionID string) bool {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	_, ok := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	return ok
}

// EvictIdleSessions drops every idle session and returns how many went.
func (e *Engine) EvictIdleSessions() int {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	return e.evictIdleLocked(e.now())
}

// SessionCount returns the number of open sessions.
func (e *Engine) SessionCount() int {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	return len(e.sessions)
}

// evictIdleLocked must be called with sessMu held.
func (e *Engine) evictIdleLocked(now time.Time) int {
	n := 0
	for sid, s := range e.sessions {
		if s.idle(now, e.config.SessionIdleTimeout) {
			delete(e.sessions, sid)
			n++
		}
	}
	if n > 0 {
		e.logger.Debug("tierguard: idle sessions dropped", slog.Int("count", n))
	}
	return n
}

// idle reports whether s went unused for longer than timeout. A session
// in the middle of a commit is never idle.
func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.committing && now.Sub(s.lastUsed) > timeout
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// QueueChange queues a change of ref for tier. The old value is the current
// explicit value, empty when the slot only inherits. A change back to the
// old value drops the pending change. It reports whether a change remains
// queued for the slot.
func (s *Session) QueueChange(ctx context.Context, ref permission.Ref, tier permission.Tier, perm permission.Type, reason string) (bool, error) {
	e := s.engine
	if _, err := e.checkOperation(ctx, ref, tier, perm, nil); err != nil {
		return false, err
	}
	cat, err := e.Catalog(ctx)
	if err != nil {
		return false, err
	}
	m, err := e.matrixFor(ctx, cat, &permission.ListFilter{EntityIDs: []string{ref.ID}, Tier: tier})
	if err != nil {
		return false, err
	}
	old, _ := m.Explicit(ref, tier)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}
	s.lastUsed = e.now()
	return s.queue.Put(change.Change{
		EntityType:    ref.Type,
		EntityID:      ref.ID,
		Tier:          tier,
		OldPermission: old,
		NewPermission: perm,
		Reason:        reason,
		QueuedAt:      e.now(),
	}), nil
}

// Changes returns the pending changes in queue order.
func (s *Session) Changes() []change.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Changes()
}

// Len returns the number of pending changes.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Validate runs the validator with the pending changes overlaid.
func (s *Session) Validate(ctx context.Context) (*validate.Report, error) {
	return s.engine.Validate(ctx, s.Changes())
}

// DiscardAll drops every pending change and returns how many were dropped.
func (s *Session) DiscardAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return 0, ErrCommitInProgress
	}
	n := s.queue.Len()
	s.queue.Clear()
	return n, nil
}

// CommitAll validates and applies every pending change in queue order.
//
// Errors attributable to the pending set refuse the commit, and warnings
// refuse it unless acknowledged. Changes are applied one by one with no
// cross-entity transaction: on the first failure the commit stops, applied
// changes leave the queue and the failed and remaining ones stay queued.
func (s *Session) CommitAll(ctx context.Context, opts CommitOptions) (*CommitReport, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return nil, ErrCommitInProgress
	}
	s.committing = true
	pending := s.queue.Changes()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.committing = false
		s.mu.Unlock()
	}()

	e := s.engine
	report := &CommitReport{SessionID: s.ID, Committed: []change.Change{}}
	if len(pending) == 0 {
		report.Remaining = []change.Change{}
		return report, nil
	}

	if !opts.SkipValidation && !skipValidation(ctx) {
		if err := e.authorize(ctx); err != nil {
			return nil, err
		}
		issues, err := e.attributableIssues(ctx, pending)
		if err != nil {
			return nil, err
		}
		report.Issues = issues
		if blocked := blockingIssues(issues, opts.AcknowledgeWarnings); len(blocked) > 0 {
			report.Remaining = pending
			if e.plugins != nil {
				e.plugins.EmitCommitBlocked(ctx, s.ID, blocked)
			}
			e.logger.Info("tierguard: commit blocked",
				slog.String("session_id", s.ID),
				slog.Int("pending", len(pending)),
				slog.Int("issues", len(blocked)),
			)
			return report, &ValidationError{Issues: blocked}
		}
	}

	for i, c := range pending {
		res, err := e.commitOne(ctx, c)
		if err != nil {
			report.Remaining = pending[i:]
			if e.plugins != nil {
				e.plugins.EmitCommitFailed(ctx, s.ID, c, err)
			}
			e.logger.Warn("tierguard: commit stopped",
				slog.String("session_id", s.ID),
				slog.Int("committed", i),
				slog.Int("remaining", len(pending)-i),
				slog.String("error", err.Error()),
			)
			e.emitCommitted(ctx, s.ID, report.Committed)
			return report, err
		}
		s.mu.Lock()
		s.queue.Remove(c.Key())
		s.mu.Unlock()
		report.Committed = append(report.Committed, c)
		report.Results = append(report.Results, res)
	}
	report.Remaining = []change.Change{}

	e.emitCommitted(ctx, s.ID, report.Committed)
	return report, nil
}

// commitOne re-runs the operation checks and applies c. The commit
// validated the pending set as a whole, so the per-change security checks
// are not repeated.
func (e *Engine) commitOne(ctx context.Context, c change.Change) (*ApplyResult, error) {
	cat, err := e.checkOperation(ctx, c.Ref(), c.Tier, c.NewPermission, nil)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, cat, ApplyRequest{
		Ref:        c.Ref(),
		Tier:       c.Tier,
		Permission: c.NewPermission,
		Reason:     c.Reason,
	})
}

func (e *Engine) emitCommitted(ctx context.Context, sessionID string, committed []change.Change) {
	if len(committed) > 0 && e.plugins != nil {
		e.plugins.EmitChangesCommitted(ctx, sessionID, committed)
	}
}

// attributableIssues validates pending over the current matrix and keeps
// the issues the pending set is responsible for: issues on a pending slot
// and issues absent from the state without the pending changes.
func (e *Engine) attributableIssues(ctx context.Context, pending []change.Change) ([]validate.Issue, error) {
	m, err := e.Matrix(ctx)
	if err != nil {
		return nil, err
	}
	before := make(map[string]struct{})
	for _, i := range e.validator.Validate(m, nil).Issues {
		before[i.ID] = struct{}{}
	}
	keys := make(map[permission.Key]struct{}, len(pending))
	for _, c := range pending {
		keys[c.Key()] = struct{}{}
	}

	after := e.validator.Validate(m, pending)
	if e.plugins != nil {
		e.plugins.EmitValidationCompleted(ctx, after)
	}

	var out []validate.Issue
	for _, i := range after.Issues {
		_, onPending := keys[i.Key()]
		_, existed := before[i.ID]
		if onPending || !existed {
			out = append(out, i)
		}
	}
	return out, nil
}

// blockingIssues returns the issues that refuse a commit: every error, and
// every warning unless acknowledged. Warnings are returned only when no
// error is present.
func blockingIssues(issues []validate.Issue, acknowledged bool) []validate.Issue {
	var errs, warns []validate.Issue
	for _, i := range issues {
		switch i.Type {
		case validate.TypeError:
			errs = append(errs, i)
		case validate.TypeWarning:
			warns = append(warns, i)
		}
	}
	if len(errs) > 0 {
		return append(errs, warns...)
	}
	if acknowledged {
		return nil
	}
	return warns
}
