package migrations

import "github.com/jmoiron/sqlx"

func init() {
	m.addMigration(&migration{
		version: "20260901093000",
		up:      mig_20260901093000_boards_up,
		down:    mig_20260901093000_boards_down,
	})
}

func mig_20260901093000_boards_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS boards (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
            name VARCHAR(255) NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            position INTEGER NOT NULL DEFAULT 1,
            allow_comments BOOLEAN NOT NULL DEFAULT TRUE,
            allow_attachments BOOLEAN NOT NULL DEFAULT TRUE,
            allow_assignments BOOLEAN NOT NULL DEFAULT TRUE,
            max_tasks INTEGER NOT NULL DEFAULT 0 CHECK (max_tasks >= 0),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_boards_project_id ON boards(project_id, position);
    `)
	return err
}

func mig_20260901093000_boards_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS boards;`)
	return err
}
