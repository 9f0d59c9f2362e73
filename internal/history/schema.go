package history

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    total       INTEGER NOT NULL DEFAULT 0,
    alive       INTEGER,
    dead        INTEGER
);

CREATE TABLE IF NOT EXISTS status_records (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    url              TEXT NOT NULL,
    checked_at       TEXT NOT NULL,
    ok               INTEGER NOT NULL,
    status_code      INTEGER,
    response_time_ms INTEGER NOT NULL,
    error_kind       TEXT,
    error_message    TEXT
);

CREATE INDEX IF NOT EXISTS idx_status_records_url ON status_records(url, id);
CREATE INDEX IF NOT EXISTS idx_status_records_run ON status_records(run_id);
`
