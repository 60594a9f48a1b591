// vesting-auto-release claims everything currently claimable across active
// schedules, marking the releases automatic. Intended to run as a scheduled
// job (Cloud Scheduler / cron).
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/vesting-auto-release
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/workflow"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	logger := config.GetLogger()
	released, err := workflow.AutoReleaseDueSchedules(ctx, db, logger, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "auto release finished with errors after %d release(s): %v\n", released, err)
		os.Exit(1)
	}
	fmt.Printf("Released %d schedule(s)\n", released)
}
