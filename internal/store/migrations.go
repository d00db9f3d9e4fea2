package store

const schema = `
-- Host metric snapshots, one row per sample
CREATE TABLE IF NOT EXISTS snapshots (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    captured_at        INTEGER NOT NULL, -- unix nanoseconds, UTC
    cpu_usage_pct      REAL    NOT NULL,
    cpu_temperature_c  REAL    NOT NULL,
    memory_total_bytes INTEGER NOT NULL,
    memory_used_bytes  INTEGER NOT NULL,
    disk_total_bytes   INTEGER NOT NULL,
    disk_used_bytes    INTEGER NOT NULL,
    network_bytes_in   INTEGER NOT NULL,
    network_bytes_out  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots(captured_at);
`
