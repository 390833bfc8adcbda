// Command migrate manages the local store schema from the in-code
// migration registry. posd applies pending migrations on startup by
// itself; this tool exists for provisioning and for explicit rollbacks
// during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/mimi6060/festivals-pos/internal/infrastructure/persistence/sqlite"
)

func main() {
	var (
		storePath string
		command   string
		steps     int
	)

	flag.StringVar(&storePath, "path", "", "Path to the SQLite store file")
	flag.StringVar(&command, "command", "up", "Command: up, down, status, version")
	flag.IntVar(&steps, "steps", 1, "Number of versions to roll back for down")
	flag.Parse()

	if storePath == "" {
		storePath = os.Getenv("STORE_PATH")
	}
	if storePath == "" {
		storePath = "festivals-pos.db"
	}

	// Positional form: migrate [command] [steps]
	args := flag.Args()
	if len(args) > 0 {
		command = args[0]
	}
	if len(args) > 1 {
		var err error
		steps, err = strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid steps argument: %v", err)
		}
	}

	db, err := sqlite.Open(sqlite.Config{Path: storePath, BusyTimeout: 5 * time.Second})
	if err != nil {
		log.Fatalf("failed to open store %s: %v", storePath, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch command {
	case "up":
		before, err := sqlite.CurrentVersion(ctx, db)
		if err != nil {
			log.Fatalf("failed to read schema version: %v", err)
		}
		if err := sqlite.Initialize(ctx, db); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		after, err := sqlite.CurrentVersion(ctx, db)
		if err != nil {
			log.Fatalf("failed to read schema version: %v", err)
		}
		if after == before {
			fmt.Printf("Store is up to date at version %d\n", after)
		} else {
			fmt.Printf("Migrated from version %d to %d\n", before, after)
		}

	case "down":
		if steps < 1 {
			log.Fatal("down requires a positive step count")
		}
		if err := sqlite.Rollback(ctx, db, steps); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		version, err := sqlite.CurrentVersion(ctx, db)
		if err != nil {
			log.Fatalf("failed to read schema version: %v", err)
		}
		fmt.Printf("Rolled back %d version(s), now at version %d\n", steps, version)

	case "status":
		applied, err := sqlite.AppliedMigrations(ctx, db)
		if err != nil {
			log.Fatalf("failed to read migrations log: %v", err)
		}
		appliedAt := make(map[int]time.Time, len(applied))
		for _, am := range applied {
			appliedAt[am.Version] = am.AppliedAt
		}
		for _, m := range sqlite.Migrations() {
			if at, ok := appliedAt[m.Version]; ok {
				fmt.Printf("%3d  %-32s applied %s\n", m.Version, m.Name, at.Format(time.RFC3339))
			} else {
				fmt.Printf("%3d  %-32s pending\n", m.Version, m.Name)
			}
		}

	case "version":
		version, err := sqlite.CurrentVersion(ctx, db)
		if err != nil {
			log.Fatalf("failed to read schema version: %v", err)
		}
		if version == 0 {
			fmt.Println("No migrations applied yet")
		} else {
			fmt.Printf("Current version: %d\n", version)
		}

	default:
		log.Fatalf("unknown command: %s\nAvailable commands: up, down, status, version", command)
	}
}
