package usecase

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/job"
	"haul-dispatch/internal/domain/match"
	"haul-dispatch/internal/domain/offer"
	"haul-dispatch/internal/repository"

	"github.com/google/uuid"
)

// memStore is the in-memory backing for the fake repositories. A single
// mutex guards every map so concurrent accept attempts observe atomic
// per-operation state, and txMu serializes whole transactions the way row
// locks would.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	jobs    map[uuid.UUID]job.Job
	offers  map[uuid.UUID]offer.Offer
	matches map[uuid.UUID]match.Match // keyed by job ID
}

func newMemStore() *memStore {
	return &memStore{
		jobs:    make(map[uuid.UUID]job.Job),
		offers:  make(map[uuid.UUID]offer.Offer),
		matches: make(map[uuid.UUID]match.Match),
	}
}

type memDB struct {
	store *memStore
}

func (d *memDB) Exec(_ context.Context, _ string, _ ...any) (int64, error) {
	panic("memDB: raw Exec not expected in usecase tests")
}

func (d *memDB) Query(_ context.Context, _ string, _ ...any) (database.Rows, error) {
	panic("memDB: raw Query not expected in usecase tests")
}

func (d *memDB) QueryRow(_ context.Context, _ string, _ ...any) database.Row {
	panic("memDB: raw QueryRow not expected in usecase tests")
}

func (d *memDB) Ping(_ context.Context) error { return nil }
func (d *memDB) Close() error                 { return nil }
func (d *memDB) SQLDB() *sql.DB               { return nil }

func (d *memDB) Begin(_ context.Context) (database.Tx, error) {
	d.store.txMu.Lock()
	return &memTx{store: d.store}, nil
}

// memTx records an undo step for every write so Rollback restores the store
// exactly, mirroring transactional atomicity.
type memTx struct {
	store *memStore
	undo  []func()
	done  bool
}

func (t *memTx) Exec(_ context.Context, _ string, _ ...any) (int64, error) {
	panic("memTx: raw Exec not expected in usecase tests")
}

func (t *memTx) Query(_ context.Context, _ string, _ ...any) (database.Rows, error) {
	panic("memTx: raw Query not expected in usecase tests")
}

func (t *memTx) QueryRow(_ context.Context, _ string, _ ...any) database.Row {
	panic("memTx: raw QueryRow not expected in usecase tests")
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.undo = nil
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

type memJobRepo struct {
	store *memStore
}

func (r *memJobRepo) GetByID(_ context.Context, id uuid.UUID) (job.Job, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	j, ok := r.store.jobs[id]
	return j, ok, nil
}

func (r *memJobRepo) Create(_ context.Context, j job.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.jobs[j.ID] = j
	return nil
}

func (r *memJobRepo) MarkMatched(_ context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error) {
	tx := q.(*memTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	j, ok := r.store.jobs[id]
	if !ok || j.Status != job.StatusOpen {
		return 0, nil
	}
	prev := j
	tx.onRollback(func() { r.store.jobs[id] = prev })
	j.Status = job.StatusMatched
	j.UpdatedAt = at
	r.store.jobs[id] = j
	return 1, nil
}

type memOfferRepo struct {
	store *memStore
}

func (r *memOfferRepo) GetByID(_ context.Context, id uuid.UUID) (offer.Offer, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	return o, ok, nil
}

func (r *memOfferRepo) InsertWave(_ context.Context, offers []offer.Offer) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	created := 0
	for _, o := range offers {
		if r.waveDuplicateLocked(o) {
			continue
		}
		r.store.offers[o.ID] = o
		created++
	}
	return created, nil
}

func (r *memOfferRepo) waveDuplicateLocked(o offer.Offer) bool {
	for _, have := range r.store.offers {
		if have.JobID == o.JobID && have.EscortID == o.EscortID && have.Wave == o.Wave {
			return true
		}
	}
	return false
}

func (r *memOfferRepo) ListLiveEscortIDs(_ context.Context, jobID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	live := make(map[uuid.UUID]struct{})
	for _, o := range r.store.offers {
		if o.JobID != jobID {
			continue
		}
		if o.Status.IsOpen() || o.Status == offer.StatusAccepted {
			live[o.EscortID] = struct{}{}
		}
	}
	return live, nil
}

func (r *memOfferRepo) MarkViewed(_ context.Context, id uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok || o.Status != offer.StatusOffered {
		return 0, nil
	}
	o.Status = offer.StatusViewed
	r.store.offers[id] = o
	return 1, nil
}

func (r *memOfferRepo) MarkDeclined(_ context.Context, id uuid.UUID, at time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok || !o.Status.IsOpen() {
		return 0, nil
	}
	o.Status = offer.StatusDeclined
	o.RespondedAt = &at
	r.store.offers[id] = o
	return 1, nil
}

func (r *memOfferRepo) MarkExpired(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok || !o.Status.IsOpen() {
		return nil
	}
	o.Status = offer.StatusExpired
	r.store.offers[id] = o
	return nil
}

func (r *memOfferRepo) AcceptIfOpen(_ context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error) {
	tx := q.(*memTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.offers[id]
	if !ok || !o.Status.IsOpen() {
		return 0, nil
	}
	prev := o
	tx.onRollback(func() { r.store.offers[id] = prev })
	o.Status = offer.StatusAccepted
	o.RespondedAt = &at
	r.store.offers[id] = o
	return 1, nil
}

func (r *memOfferRepo) RescindOpenByJob(_ context.Context, q database.Queryer, jobID, exceptID uuid.UUID) (int64, error) {
	tx := q.(*memTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, o := range r.store.offers {
		if o.JobID != jobID || id == exceptID || !o.Status.IsOpen() {
			continue
		}
		prev := o
		rid := id
		tx.onRollback(func() { r.store.offers[rid] = prev })
		o.Status = offer.StatusRescinded
		r.store.offers[id] = o
		n++
	}
	return n, nil
}

func (r *memOfferRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, o := range r.store.offers {
		if o.Status.IsOpen() && o.ExpiredAt(now) {
			o.Status = offer.StatusExpired
			r.store.offers[id] = o
			n++
		}
	}
	return n, nil
}

// memMatchRepo enforces the one-match-per-job uniqueness constraint the
// way the matches table does. beforeInsert, when set, runs just before the
// constraint check so tests can inject a competing commit.
type memMatchRepo struct {
	store        *memStore
	beforeInsert func()
}

func (r *memMatchRepo) FindByJobID(_ context.Context, jobID uuid.UUID) (match.Match, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.matches[jobID]
	return m, ok, nil
}

func (r *memMatchRepo) Insert(_ context.Context, q database.Queryer, m match.Match) error {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	tx := q.(*memTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.matches[m.JobID]; exists {
		return repository.ErrDuplicateJobMatch
	}
	tx.onRollback(func() { delete(r.store.matches, m.JobID) })
	r.store.matches[m.JobID] = m
	return nil
}

type memEmitter struct {
	mu        sync.Mutex
	confirmed []match.Match
}

func (e *memEmitter) MatchConfirmed(_ context.Context, m match.Match) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed = append(e.confirmed, m)
}

func (e *memEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.confirmed)
}
