// Command audit lists purchases that have no matching download row.
// Such pairs are left behind when post-commit logging of a purchase fails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"docspot/internal/config"
	"docspot/internal/database"
	"docspot/internal/logger"
	"docspot/internal/repository/postgres"
	"docspot/internal/service"
)

const auditTimeout = 2 * time.Minute

func main() {
	os.Exit(run())
}

// run returns 0 when the ledger and the access log agree, 2 when mismatches were found
// and 1 on failure.
func run() int {
	cfg := config.Load()

	log := logger.New(logger.Config{Location: logger.LoadLocation(cfg.Timezone)}).
		With(zap.String("component", "audit"))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Error("database_connect_failed", zap.Error(err))
		return 1
	}
	defer db.Close()

	audit := service.NewAuditService(service.Deps{
		AccessLog: postgres.NewAccessLogPostgres(db),
		Logger:    log,
	})

	mismatches, err := audit.Reconcile(ctx)
	if err != nil {
		log.Error("audit_failed", zap.Error(err))
		return 1
	}
	if len(mismatches) > 0 {
		return 2
	}
	return 0
}
