// kith-backup snapshots and restores the roster database.
//
//	kith-backup                         take a snapshot and prune old ones
//	kith-backup -list                   list stored snapshots
//	kith-backup -restore <snapshot>     restore a snapshot over the database
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/rkeeling/kith/internal/backup"
	"github.com/rkeeling/kith/internal/config"
)

func main() {
	list := flag.Bool("list", false, "List stored snapshots")
	restore := flag.String("restore", "", "Restore the given snapshot over the database")
	keep := flag.Int("keep", 10, "Snapshots to retain")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.StorageEngine != "" && cfg.Storage.StorageEngine != "sqlite" {
		log.Fatalf("Snapshots support the sqlite engine only (configured: %s)", cfg.Storage.StorageEngine)
	}

	dbPath := cfg.Storage.DataPath + "/kith.db"
	s, err := backup.NewSnapshotter(backup.Config{
		DBPath: dbPath,
		Dir:    cfg.Storage.DataPath + "/backups",
		Keep:   *keep,
		Verify: true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize snapshotter: %v", err)
	}

	switch {
	case *list:
		snapshots, err := s.List()
		if err != nil {
			log.Fatalf("Failed to list snapshots: %v", err)
		}
		if len(snapshots) == 0 {
			fmt.Println("No snapshots stored.")
			return
		}
		for _, snapshot := range snapshots {
			fmt.Printf("%s  %8d bytes  %s\n",
				snapshot.Timestamp.Format("2006-01-02 15:04:05"), snapshot.Size, snapshot.Path)
		}

	case *restore != "":
		if err := s.Restore(*restore, dbPath); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Printf("Restored %s to %s\n", *restore, dbPath)

	default:
		snapshot, err := s.Snapshot()
		if err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		fmt.Printf("Snapshot written: %s (%d bytes)\n", snapshot.Path, snapshot.Size)
	}
}
