package mmcfe

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/transition"
)

// LogDB wraps the MMCFE log database (spec.md §4.9/§6): one table
// LogEntries(Id PK, TimeStamp, Lattice BLOB, Histogram BLOB, ParamState
// BLOB, Alpha REAL), append-only, one row per completed (relax, log)
// phase pair.
type LogDB struct {
	db *sql.DB
}

// OpenLogDB opens (creating if absent) the log database at path.
func OpenLogDB(path string) (*LogDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, mocerr.New(mocerr.Database, "mmcfe.OpenLogDB", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS LogEntries (
		Id INTEGER PRIMARY KEY,
		TimeStamp TEXT NOT NULL,
		Lattice BLOB NOT NULL,
		Histogram BLOB NOT NULL,
		ParamState BLOB NOT NULL,
		Alpha REAL NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, mocerr.New(mocerr.Database, "mmcfe.OpenLogDB", err)
	}
	return &LogDB{db: db}, nil
}

// Close releases the underlying database handle.
func (l *LogDB) Close() error { return l.db.Close() }

// Append writes one row: current lattice occupation, the phase's
// histogram, the param state (with AlphaCurrent set to alpha), and alpha
// itself, timestamped ISO-8601 UTC.
func (l *LogDB) Append(ctx *transition.Context, hist *tracking.DynamicHistogram, cfg jobconfig.MMCFEConfig, alpha float64) error {
	latticeBlob := EncodeLattice(ctx)
	histBlob := EncodeHistogram(hist)
	paramBlob := EncodeParamState(cfg)

	const maxInt32 = int64(1)<<31 - 1
	if int64(len(latticeBlob)) > maxInt32 || int64(len(histBlob)) > maxInt32 || int64(len(paramBlob)) > maxInt32 {
		return mocerr.Newf(mocerr.BufferOverflow, "mmcfe.LogDB.Append", "blob size exceeds int32 bounds")
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	_, err := l.db.Exec(
		`INSERT INTO LogEntries (TimeStamp, Lattice, Histogram, ParamState, Alpha) VALUES (?, ?, ?, ?, ?)`,
		ts, latticeBlob, histBlob, paramBlob, alpha,
	)
	if err != nil {
		return mocerr.New(mocerr.Database, "mmcfe.LogDB.Append", err)
	}
	return nil
}

// Resume reads the last row's ParamState, if any row exists, so a
// restarted sweep picks up AlphaCurrent where the prior run left off
// (spec.md §4.9's log-database resume contract). ok is false if the
// table is empty.
func (l *LogDB) Resume() (cfg jobconfig.MMCFEConfig, ok bool, err error) {
	row := l.db.QueryRow(`SELECT ParamState FROM LogEntries ORDER BY Id DESC LIMIT 1`)
	var blob []byte
	if scanErr := row.Scan(&blob); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return jobconfig.MMCFEConfig{}, false, nil
		}
		return jobconfig.MMCFEConfig{}, false, mocerr.New(mocerr.Database, "mmcfe.LogDB.Resume", scanErr)
	}
	cfg, decErr := DecodeParamState(blob)
	if decErr != nil {
		return jobconfig.MMCFEConfig{}, false, decErr
	}
	return cfg, true, nil
}

// RowCount returns the number of rows currently in LogEntries, used by
// tests asserting the AlphaCount+1 row-count invariant (spec.md §8
// scenario 5).
func (l *LogDB) RowCount() (int, error) {
	row := l.db.QueryRow(`SELECT COUNT(*) FROM LogEntries`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mocerr.New(mocerr.Database, "mmcfe.LogDB.RowCount", err)
	}
	return n, nil
}
