// Package db provides SQLite database management for the action journal.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Action journal table
-- Append-only record of every mutating command: the forward patches that
-- were applied and the inverse patches needed to undo them. Rows are never
-- updated or deleted by the application.
CREATE TABLE IF NOT EXISTS actions (
    id TEXT PRIMARY KEY,               -- UUID assigned by the application
    created_at TIMESTAMP NOT NULL,     -- RFC 3339 UTC
    action_type TEXT NOT NULL,         -- e.g. 'transaction.edit', 'revert'
    payload TEXT NOT NULL,             -- JSON: command, ids, forward entries
    inverse TEXT                       -- JSON: inverse entries (nullable)
);

CREATE INDEX IF NOT EXISTS idx_actions_created_at
    ON actions(created_at);

CREATE INDEX IF NOT EXISTS idx_actions_type
    ON actions(action_type);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
