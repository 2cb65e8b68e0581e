package lock

import (
	"context"
	"database/sql"
	"fmt"
)

// PGLocker takes Postgres session advisory locks. Lock and unlock must run
// on the same connection, so it holds one dedicated connection per held
// key rather than going through the pool.
type PGLocker struct {
	db *sql.DB

	conns map[int64]*sql.Conn
	mu    chan struct{} // 1-slot semaphore guarding conns
}

func NewPGLocker(db *sql.DB) *PGLocker {
	l := &PGLocker{
		db:    db,
		conns: make(map[int64]*sql.Conn),
		mu:    make(chan struct{}, 1),
	}
	l.mu <- struct{}{}
	return l
}

func (l *PGLocker) TryLock(ctx context.Context, key int64) (bool, error) {
	if l == nil || l.db == nil {
		return false, fmt.Errorf("nil db")
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	var got bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&got); err != nil {
		_ = conn.Close()
		return false, err
	}
	if !got {
		_ = conn.Close()
		return false, nil
	}

	<-l.mu
	l.conns[key] = conn
	l.mu <- struct{}{}
	return true, nil
}

func (l *PGLocker) Unlock(ctx context.Context, key int64) error {
	if l == nil {
		return nil
	}

	<-l.mu
	conn := l.conns[key]
	delete(l.conns, key)
	l.mu <- struct{}{}

	if conn == nil {
		return nil
	}
	_, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, key)
	cerr := conn.Close()
	if err != nil {
		return err
	}
	return cerr
}
