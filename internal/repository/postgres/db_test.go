package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"
)

// txRecorder is a minimal driver that only supports Begin/Commit/
// Rollback, enough to observe what WithTx does with the transaction.
type txRecorder struct {
	begun      int
	committed  int
	rolledBack int
}

func (r *txRecorder) Open(string) (driver.Conn, error) { return &recorderConn{rec: r}, nil }

type recorderConn struct {
	rec *txRecorder
}

func (c *recorderConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}
func (c *recorderConn) Close() error { return nil }
func (c *recorderConn) Begin() (driver.Tx, error) {
	c.rec.begun++
	return &recorderTx{rec: c.rec}, nil
}

type recorderTx struct {
	rec *txRecorder
}

func (t *recorderTx) Commit() error {
	t.rec.committed++
	return nil
}
func (t *recorderTx) Rollback() error {
	t.rec.rolledBack++
	return nil
}

func newRecordedDB(t *testing.T) (*DB, *txRecorder) {
	t.Helper()
	rec := &txRecorder{}
	name := "txrecorder_" + t.Name()
	sql.Register(name, rec)

	sqlDB, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	return &DB{
		DB:  sqlx.NewDb(sqlDB, "postgres"),
		sem: semaphore.NewWeighted(1),
	}, rec
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db, rec := newRecordedDB(t)

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	if rec.begun != 1 || rec.committed != 1 || rec.rolledBack != 0 {
		t.Errorf("begun=%d committed=%d rolledBack=%d, want 1/1/0", rec.begun, rec.committed, rec.rolledBack)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, rec := newRecordedDB(t)
	boom := errors.New("load failed")

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want %v", err, boom)
	}

	if rec.committed != 0 || rec.rolledBack != 1 {
		t.Errorf("committed=%d rolledBack=%d, want 0/1", rec.committed, rec.rolledBack)
	}
}

func TestWithTxRespectsCancelledContext(t *testing.T) {
	db, _ := newRecordedDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.WithTx(ctx, func(tx *sql.Tx) error { return nil })
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
