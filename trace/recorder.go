package trace

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
	session TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	func    TEXT    NOT NULL,
	args    TEXT    NOT NULL,
	result  TEXT    NOT NULL,
	error   TEXT    NOT NULL,
	micros  INTEGER NOT NULL,
	PRIMARY KEY (session, seq)
);`

// Call is one recorded invocation. Arguments and results are stored in
// their diagnostic text form, not as payloads.
type Call struct {
	Session string
	Seq     int64
	Func    string
	Args    string
	Result  string
	Error   string
	Micros  int64
}

// Recorder persists call records to a SQLite database. Each Recorder
// writes under its own session id, so several processes or runs can
// share one database file. Safe for concurrent use.
type Recorder struct {
	db      *sql.DB
	session string
	mu      sync.Mutex
	seq     int64
}

// Open creates or opens the trace database at path and starts a fresh
// session.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite locks the whole file
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	r := &Recorder{
		db:      db,
		session: uuid.NewString(),
	}

	Logger().Debug("trace session opened",
		zap.String("session", r.session),
		zap.String("path", path))
	return r, nil
}

// Session returns this recorder's session id.
func (r *Recorder) Session() string {
	return r.session
}

// Wrap returns a function that records every invocation of f under
// name: rendered arguments, the rendered result or the failure, and
// elapsed time. Failures pass through unchanged. Recording problems
// are logged and never disturb the call itself.
func (r *Recorder) Wrap(name string, f ffiruntime.Func) ffiruntime.Func {
	return func(ctx context.Context, args ffiruntime.Args, ret *ffiruntime.RetValue) {
		start := time.Now()
		ferr := errors.Catch(func() {
			f(ctx, args, ret)
		})

		rec := Call{
			Func:   name,
			Args:   renderArgs(args),
			Micros: time.Since(start).Microseconds(),
		}
		if ferr != nil {
			rec.Error = ferr.Error()
		} else {
			rec.Result = ret.String()
		}
		r.record(rec)

		if ferr != nil {
			errors.Throw(ferr.(*errors.Error))
		}
	}
}

// record assigns the next sequence number and inserts. The insert runs
// detached from the call's context so a canceled call still leaves a
// record.
func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO calls (session, seq, func, args, result, error, micros)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.session, seq, c.Func, c.Args, c.Result, c.Error, c.Micros)
	if err != nil {
		Logger().Warn("trace record failed",
			zap.String("func", c.Func),
			zap.Error(err))
	}
}

// Calls returns this session's records in call order.
func (r *Recorder) Calls(ctx context.Context) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session, seq, func, args, result, error, micros
		 FROM calls WHERE session = ? ORDER BY seq`,
		r.session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.Session, &c.Seq, &c.Func, &c.Args, &c.Result, &c.Error, &c.Micros); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func renderArgs(args ffiruntime.Args) string {
	var b strings.Builder
	for i := 0; i < args.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(args.Get(i).Value().String())
	}
	return b.String()
}
