package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

type fakeCommandTag struct {
	rowsAffected int64
}

func (f fakeCommandTag) RowsAffected() int64 {
	return f.rowsAffected
}

type fakeRow struct {
	values []any
	err    error
}

func rowFromValues(values ...any) Row {
	return fakeRow{values: values}
}

func errRow(err error) Row {
	return fakeRow{err: err}
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

type fakeRows struct {
	rows   [][]any
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return errors.New("scan called without a current row")
	}
	return scanInto(r.rows[r.idx-1], dest)
}

func (r *fakeRows) Close() {
	r.closed = true
}

func (r *fakeRows) Err() error {
	return r.err
}

type fakeDB struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	BeginFunc    func(ctx context.Context) (Tx, error)

	// Transactions opened by Begin when BeginFunc is nil. They run their
	// statements through the funcs above.
	txs []*fakeTx
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if d.ExecFunc != nil {
		return d.ExecFunc(ctx, sql, args...)
	}
	return fakeCommandTag{}, nil
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if d.QueryFunc != nil {
		return d.QueryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if d.QueryRowFunc != nil {
		return d.QueryRowFunc(ctx, sql, args...)
	}
	return errRow(fmt.Errorf("unexpected QueryRow: %s", sql))
}

func (d *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if d.BeginFunc != nil {
		return d.BeginFunc(ctx)
	}
	tx := &fakeTx{db: d}
	d.txs = append(d.txs, tx)
	return tx, nil
}

// lastTx returns the most recent transaction opened through Begin.
func (d *fakeDB) lastTx() *fakeTx {
	if len(d.txs) == 0 {
		return nil
	}
	return d.txs[len(d.txs)-1]
}

type fakeTx struct {
	db           *fakeDB
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if t.ExecFunc != nil {
		return t.ExecFunc(ctx, sql, args...)
	}
	if t.db != nil {
		return t.db.Exec(ctx, sql, args...)
	}
	return fakeCommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if t.QueryFunc != nil {
		return t.QueryFunc(ctx, sql, args...)
	}
	if t.db != nil {
		return t.db.Query(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if t.QueryRowFunc != nil {
		return t.QueryRowFunc(ctx, sql, args...)
	}
	if t.db != nil {
		return t.db.QueryRow(ctx, sql, args...)
	}
	return errRow(fmt.Errorf("unexpected QueryRow: %s", sql))
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	return nil
}

func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: have %d values, want %d", len(values), len(dest))
	}
	for i := range dest {
		if err := assignValue(dest[i], values[i]); err != nil {
			return fmt.Errorf("scan column %d: %w", i, err)
		}
	}
	return nil
}

func assignValue(dest, val any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return errors.New("destination must be a non-nil pointer")
	}
	target := dv.Elem()

	if val == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	v := reflect.ValueOf(val)
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case target.Kind() == reflect.Ptr && v.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(v)
		target.Set(p)
	case v.Type().ConvertibleTo(target.Type()):
		target.Set(v.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", val, target.Type())
	}
	return nil
}
