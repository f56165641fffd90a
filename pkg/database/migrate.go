package database

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateReset  = "reset"
)

var gooseRun = goose.Run

// Migrate runs a goose command against the embedded SQL migrations.
func Migrate(db *sql.DB, migrations fs.FS, command string, logger *zap.Logger, args ...string) error {
	switch command {
	case MigrateUp, MigrateDown, MigrateStatus, MigrateReset:
	default:
		return fmt.Errorf("unsupported migration command %q", command)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := gooseRun(command, db, ".", args...); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }

func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
