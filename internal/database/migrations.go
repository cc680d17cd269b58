package database

// Migration represents a database migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: "001_server_state",
		Up: `
-- Durable supervisor state, one row per managed server.
-- pid/started_at are NULL whenever no process handle is active.
CREATE TABLE server_state (
    server_id TEXT PRIMARY KEY,
    pid INTEGER,
    started_at DATETIME,
    status TEXT NOT NULL DEFAULT 'stopped',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`,
		Down: `DROP TABLE server_state;`,
	},
	{
		Version: "002_console_commands",
		Up: `
-- History of commands written to a server's input channel.
CREATE TABLE console_commands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    server_id TEXT NOT NULL,
    command TEXT NOT NULL,
    success BOOLEAN NOT NULL DEFAULT 1,
    executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_console_commands_server ON console_commands(server_id, executed_at);
`,
		Down: `DROP TABLE console_commands;`,
	},
}
