package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step; its presence means the schema is complete.
const sentinelTable = "public.activities"

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id              UUID          PRIMARY KEY,
  title           TEXT          NOT NULL,
  description     TEXT          NOT NULL DEFAULT '',
  university      TEXT          NOT NULL DEFAULT '',
  semester        TEXT          NOT NULL CHECK (semester IN ('Fall', 'Spring', 'Summer')),
  academic_year   INTEGER       NOT NULL CHECK (academic_year > 0),
  course_name     TEXT          NOT NULL,
  instructor_name TEXT          NOT NULL DEFAULT '',
  access_type     TEXT          NOT NULL CHECK (access_type IN ('free', 'paid')),
  price           NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
  file_url        TEXT          NOT NULL,
  owner_id        TEXT          NOT NULL,
  upvotes         BIGINT        NOT NULL DEFAULT 0,
  tags            JSONB         NOT NULL DEFAULT '[]'::jsonb,
  created_at      TIMESTAMPTZ   NOT NULL DEFAULT now(),
  CHECK ((access_type = 'paid' AND price > 0) OR (access_type = 'free' AND price = 0))
);`,
	},
	{
		Name: "create_index_documents_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents (owner_id);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_index_documents_tags",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags);`,
	},
	{
		Name: "create_table_document_passkeys",
		SQL: `CREATE TABLE IF NOT EXISTS document_passkeys (
  id          BIGSERIAL   PRIMARY KEY,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  position    INTEGER     NOT NULL,
  key         TEXT        NOT NULL,
  is_used     BOOLEAN     NOT NULL DEFAULT FALSE,
  used_by     TEXT,
  used_at     TIMESTAMPTZ,
  UNIQUE (document_id, key),
  UNIQUE (document_id, position),
  CHECK (NOT is_used OR used_by IS NOT NULL)
);`,
	},
	{
		Name: "create_index_document_passkeys_unused",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_passkeys_unused ON document_passkeys (document_id, position) WHERE NOT is_used;`,
	},
	{
		Name: "create_table_wallets",
		SQL: `CREATE TABLE IF NOT EXISTS wallets (
  user_id          TEXT          PRIMARY KEY,
  balance          NUMERIC(18,2) NOT NULL CHECK (balance >= 0),
  starting_balance NUMERIC(18,2) NOT NULL CHECK (starting_balance >= 0),
  created_at       TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_wallet_transactions",
		SQL: `CREATE TABLE IF NOT EXISTS wallet_transactions (
  id          UUID          PRIMARY KEY,
  user_id     TEXT          NOT NULL REFERENCES wallets (user_id),
  type        TEXT          NOT NULL CHECK (type IN ('debit', 'credit')),
  amount      NUMERIC(18,2) NOT NULL CHECK (amount > 0),
  description TEXT          NOT NULL,
  document_id TEXT,
  created_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_wallet_transactions_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user_id ON wallet_transactions (user_id, created_at);`,
	},
	{
		Name: "create_table_downloaded_docs",
		SQL: `CREATE TABLE IF NOT EXISTS downloaded_docs (
  id            UUID        PRIMARY KEY,
  user_id       TEXT        NOT NULL,
  document_id   TEXT        NOT NULL,
  used_key      TEXT,
  downloaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_downloaded_docs_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_downloaded_docs_user_id ON downloaded_docs (user_id, downloaded_at);`,
	},
	{
		Name: "create_table_activities",
		SQL: `CREATE TABLE IF NOT EXISTS activities (
  id           UUID        PRIMARY KEY,
  user_id      TEXT        NOT NULL,
  type         TEXT        NOT NULL CHECK (type IN ('download', 'publish', 'upvote')),
  content_ref  TEXT        NOT NULL,
  content_type TEXT        NOT NULL,
  timestamp    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_activities_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities (user_id, timestamp);`,
	},
}

// EnsureMigrated checks if the sentinel table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("detail", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
