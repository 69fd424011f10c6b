package limiter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	rowErr       error
	blockedUntil time.Time
	failCount    int

	lastExecSQL string
	execErr     error
}

func (f *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL = sql
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT blocked_until"):
		return fakeRow{scan: func(dest ...any) error {
			if f.rowErr != nil {
				return f.rowErr
			}
			*(dest[0].(*time.Time)) = f.blockedUntil
			return nil
		}}
	case strings.Contains(sql, "RETURNING fail_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.rowErr != nil {
				return f.rowErr
			}
			*(dest[0].(*int)) = f.failCount
			return nil
		}}
	default:
		return fakeRow{scan: func(...any) error { return errors.New("unexpected query") }}
	}
}

func TestAllow_NoRow_Allows(t *testing.T) {
	fp := &fakePool{rowErr: pgx.ErrNoRows}
	l := NewPGWithQuerier(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, wait, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !ok || wait != 0 {
		t.Fatalf("no-row allow: ok=%v wait=%v err=%v", ok, wait, err)
	}
}

func TestAllow_ActiveBlock(t *testing.T) {
	fp := &fakePool{blockedUntil: time.Now().Add(10 * time.Minute)}
	l := NewPGWithQuerier(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, wait, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || ok || wait <= 0 {
		t.Fatalf("active block: ok=%v wait=%v err=%v", ok, wait, err)
	}
}

func TestAllow_ExpiredBlock_Allows(t *testing.T) {
	fp := &fakePool{blockedUntil: time.Now().Add(-time.Minute)}
	l := NewPGWithQuerier(fp, 15*time.Minute, 5, 15*time.Minute)

	ok, wait, err := l.Allow(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !ok || wait != 0 {
		t.Fatalf("expired block: ok=%v wait=%v err=%v", ok, wait, err)
	}
}

func TestAllow_DBError_Propagates(t *testing.T) {
	fp := &fakePool{rowErr: errors.New("db down")}
	l := NewPGWithQuerier(fp, 15*time.Minute, 5, 15*time.Minute)

	if ok, _, err := l.Allow(context.Background(), "a@b.c", []byte("h")); err == nil || ok {
		t.Fatalf("want propagated error, got ok=%v err=%v", ok, err)
	}
}

func TestSuccess_ResetsCounter(t *testing.T) {
	fp := &fakePool{}
	l := NewPGWithQuerier(fp, 15*time.Minute, 5, 15*time.Minute)

	if err := l.Success(context.Background(), "a@b.c", []byte("h")); err != nil {
		t.Fatalf("success: %v", err)
	}
	if !strings.Contains(fp.lastExecSQL, "INSERT INTO login_attempts") {
		t.Fatalf("unexpected exec: %s", fp.lastExecSQL)
	}
}

func TestFailure_BelowThreshold(t *testing.T) {
	fp := &fakePool{failCount: 2}
	l := NewPGWithQuerier(fp, 5*time.Minute, 5, 15*time.Minute)

	blocked, wait, err := l.Failure(context.Background(), "a@b.c", []byte("h"))
	if err != nil || blocked || wait != 0 {
		t.Fatalf("below threshold: blocked=%v wait=%v err=%v", blocked, wait, err)
	}
}

func TestFailure_BlocksAtThreshold(t *testing.T) {
	fp := &fakePool{failCount: 5}
	l := NewPGWithQuerier(fp, 5*time.Minute, 5, 10*time.Minute)

	blocked, wait, err := l.Failure(context.Background(), "a@b.c", []byte("h"))
	if err != nil || !blocked || wait != 10*time.Minute {
		t.Fatalf("at threshold: blocked=%v wait=%v err=%v", blocked, wait, err)
	}
	if !strings.Contains(fp.lastExecSQL, "UPDATE login_attempts SET blocked_until") {
		t.Fatalf("must persist the block, exec=%s", fp.lastExecSQL)
	}
}

func TestHashIP_StableAndDistinct(t *testing.T) {
	a := HashIP("10.0.0.1:5432")
	b := HashIP("10.0.0.1:5432")
	c := HashIP("10.0.0.2:5432")
	if string(a) != string(b) || string(a) == string(c) || len(a) != 32 {
		t.Fatalf("hash properties violated, len=%d", len(a))
	}
}
