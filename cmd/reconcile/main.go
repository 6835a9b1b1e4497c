// Command reconcile raises listing applicant counters that fell behind the
// number of stored applications, then exits.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"StudentShift-backend/internal/config"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/ledger"
	"StudentShift-backend/internal/logging"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	dbConfig, err := database.ConfigFrom(cfg)
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	db, err := database.NewDBInstance(dbConfig)
	if err != nil {
		log.Fatalf("database failed to initialize: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repaired, err := ledger.New(db.DB).ReconcileCounts(ctx)
	if err != nil {
		log.Fatalf("reconcile failed: %v", err)
	}

	fmt.Printf("Reconciled applicant counters, %d listing(s) repaired.\n", repaired)
}
