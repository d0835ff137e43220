package plan

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/rubric"
)

// DefaultAutosaveDelay is how long the autosaver waits after the last
// answer before persisting. Long enough to coalesce a burst of
// answers, short enough that a crash loses at most a moment of work.
const DefaultAutosaveDelay = 500 * time.Millisecond

// Autosaver debounces writes: each Touch restarts the timer, and only
// a quiet period (or an explicit Flush) triggers the save function.
type Autosaver struct {
	delay time.Duration
	save  func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

func NewAutosaver(delay time.Duration, save func()) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{delay: delay, save: save}
}

// Touch marks dirty state and (re)starts the debounce timer.
func (a *Autosaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if a.stopped || !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.mu.Unlock()
	a.save()
}

// Flush saves synchronously if anything is pending.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	dirty := a.pending
	a.pending = false
	a.mu.Unlock()
	if dirty {
		a.save()
	}
}

// Stop flushes pending state and disables further saves.
func (a *Autosaver) Stop() {
	a.Flush()
	a.mu.Lock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
}

// AssessmentSession is an in-progress walk through the rubric for one
// plan. Answers accumulate locally and autosave after a quiet period;
// Submit flushes synchronously before scoring so nothing is lost.
type AssessmentSession struct {
	svc    *Service
	planID string

	mu      sync.Mutex
	dirty   assessment.ResponseSet
	saveErr error

	saver *Autosaver
}

// OpenAssessment starts (or resumes) the assessment for a plan.
func (s *Service) OpenAssessment(ctx context.Context, planID string) (*AssessmentSession, error) {
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	sess := &AssessmentSession{
		svc:    s,
		planID: p.ID,
		dirty:  assessment.ResponseSet{},
	}
	sess.saver = NewAutosaver(DefaultAutosaveDelay, func() { sess.persist(context.Background()) })
	return sess, nil
}

// SetResponse records one answer. The write hits the store after the
// debounce delay, not immediately.
func (a *AssessmentSession) SetResponse(itemID int, value rubric.ResponseValue) error {
	if _, ok := a.svc.rubric.Item(itemID); !ok {
		return &ValidationError{Field: "item", Reason: "unknown rubric item"}
	}
	if _, err := rubric.ParseResponseValue(string(value)); err != nil {
		return &ValidationError{Field: "value", Reason: err.Error()}
	}

	a.mu.Lock()
	a.dirty[itemID] = value
	a.mu.Unlock()
	a.saver.Touch()
	return nil
}

func (a *AssessmentSession) persist(ctx context.Context) {
	a.mu.Lock()
	if len(a.dirty) == 0 {
		a.mu.Unlock()
		return
	}
	batch := make(assessment.ResponseSet, len(a.dirty))
	for id, v := range a.dirty {
		batch[id] = v
	}
	a.mu.Unlock()

	_, err := a.svc.SaveResponses(ctx, a.planID, batch)

	a.mu.Lock()
	a.saveErr = err
	if err == nil {
		for id, v := range batch {
			if a.dirty[id] == v {
				delete(a.dirty, id)
			}
		}
	}
	a.mu.Unlock()
}

// Flush persists any pending answers synchronously.
func (a *AssessmentSession) Flush(ctx context.Context) error {
	a.saver.Flush()
	a.persist(ctx)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveErr
}

// Submit flushes pending answers and runs scoring and determination.
func (a *AssessmentSession) Submit(ctx context.Context) (*Plan, error) {
	if err := a.Flush(ctx); err != nil {
		return nil, err
	}
	a.saver.Stop()
	return a.svc.SubmitAssessment(ctx, a.planID)
}

// Close flushes and releases the session without submitting.
func (a *AssessmentSession) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	a.saver.Stop()
	return err
}
