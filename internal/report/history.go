package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// History archives benchmark artifacts in a sqlite database so past runs
// can be listed and compared without keeping the JSON files around.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	backend    TEXT NOT NULL,
	engine     TEXT NOT NULL DEFAULT '',
	scenario   TEXT NOT NULL,
	artifact   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_lookup ON runs (backend, scenario, id);
`

// OpenHistory creates or opens the archive at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// Writes are serialized; sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Save archives one artifact and returns its row ID.
func (h *History) Save(art Artifact) (int64, error) {
	data, err := json.Marshal(art)
	if err != nil {
		return 0, fmt.Errorf("marshal artifact: %w", err)
	}
	res, err := h.db.Exec(
		`INSERT INTO runs (created_at, backend, engine, scenario, artifact) VALUES (?, ?, ?, ?, ?)`,
		art.GeneratedAt.Format(time.RFC3339Nano), art.Backend, art.Engine, art.Scenario, string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("save artifact: %w", err)
	}
	return res.LastInsertId()
}

// Entry is one archived run.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	Backend   string
	Engine    string
	Scenario  string
}

// List returns the most recent entries, newest first.
func (h *History) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(
		`SELECT id, created_at, backend, engine, scenario FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.Backend, &e.Engine, &e.Scenario); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get loads one archived artifact by row ID.
func (h *History) Get(id int64) (Artifact, error) {
	var art Artifact
	var data string
	err := h.db.QueryRow(`SELECT artifact FROM runs WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return art, fmt.Errorf("history run %d not found", id)
	}
	if err != nil {
		return art, fmt.Errorf("load history run %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(data), &art); err != nil {
		return art, fmt.Errorf("decode history run %d: %w", id, err)
	}
	return art, nil
}

// Latest loads the newest artifact for a backend/scenario pair.
func (h *History) Latest(backend, scenario string) (Artifact, error) {
	var art Artifact
	var data string
	err := h.db.QueryRow(
		`SELECT artifact FROM runs WHERE backend = ? AND scenario = ? ORDER BY id DESC LIMIT 1`,
		backend, scenario).Scan(&data)
	if err == sql.ErrNoRows {
		return art, fmt.Errorf("no archived runs for %s/%s", backend, scenario)
	}
	if err != nil {
		return art, fmt.Errorf("load latest %s/%s: %w", backend, scenario, err)
	}
	if err := json.Unmarshal([]byte(data), &art); err != nil {
		return art, fmt.Errorf("decode latest %s/%s: %w", backend, scenario, err)
	}
	return art, nil
}
