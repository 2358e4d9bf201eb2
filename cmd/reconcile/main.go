package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/coachdesk/backend/internal/infrastructure/config"
	"github.com/coachdesk/backend/internal/infrastructure/logger"
	"github.com/coachdesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		dryRun     bool
		activeOnly bool
		logLevel   string
		timeout    time.Duration
	)

	flag.BoolVar(&dryRun, "dry-run", false, "Report repairs without writing them")
	flag.BoolVar(&activeOnly, "active-only", false, "Restrict the sweep to active students")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Abort the sweep after this duration")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !activeOnly {
		activeOnly = cfg.Reconcile.ActiveOnly
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	scope := persistence.NewGormTransactionScope(db.DB)
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	locks := feesapp.NewStudentLocks()
	svc := feesapp.NewReconcileService(scope, studentRepo, locks, log, cfg.Fees.GenerationCeilingMonths)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("Reconciliation sweep started",
		zap.Bool("dry_run", dryRun),
		zap.Bool("active_only", activeOnly),
	)

	report, err := svc.ReconcileAll(ctx, feesapp.ReconcileOptions{
		DryRun:     dryRun,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		log.Fatal("Reconciliation sweep failed", zap.Error(err))
	}

	log.Info("Reconciliation sweep finished",
		zap.Int("students_examined", report.StudentsExamined),
		zap.Int("anchors_corrected", report.AnchorsCorrected),
		zap.Int("duplicates_removed", report.DuplicatesRemoved),
		zap.Int("overpayments_adjusted", report.OverpaymentsAdjusted),
		zap.Int("due_dates_corrected", report.DueDatesCorrected),
		zap.Int("obligations_created", report.ObligationsCreated),
		zap.Int("excess_removed", report.ExcessRemoved),
		zap.Int("orphan_obligations_removed", report.OrphanObligationsRemoved),
		zap.Int("orphan_ledger_entries_removed", report.OrphanLedgerEntriesRemoved),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	// Full report on stdout for scripting
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal("Failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))

	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
