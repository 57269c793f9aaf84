// kith-similarity is the standalone near-duplicate scorer for fact values.
// It is a human-triggered review aid: commit-time merging uses exact
// case-insensitive equality only and never consults these scores.
//
// Values come from stdin (one per line), or from a kith database when -db
// is set, optionally narrowed to one category.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rkeeling/kith/internal/similarity"
	"github.com/rkeeling/kith/internal/storage"
	"github.com/rkeeling/kith/internal/storage/sqlite"
	"github.com/rkeeling/kith/pkg/types"
)

func main() {
	dbPath := flag.String("db", "", "Path to a kith SQLite database; reads values from stdin when empty")
	category := flag.String("category", "", "Restrict database scan to one fact category")
	threshold := flag.Float64("threshold", 0.5, "Minimum similarity score to report")
	flag.Parse()

	var values []string
	var err error
	if *dbPath != "" {
		values, err = loadFactValues(*dbPath, *category)
		if err != nil {
			log.Fatalf("Failed to load fact values: %v", err)
		}
	} else {
		values = readLines(os.Stdin)
	}

	if len(values) < 2 {
		log.Fatal("Need at least two values to compare")
	}

	pairs := similarity.FindNearDuplicates(values, *threshold)
	if len(pairs) == 0 {
		fmt.Println("No near-duplicates found.")
		return
	}

	for _, pair := range pairs {
		fmt.Printf("%.2f  %q  ~  %q\n", pair.Score, pair.A, pair.B)
	}
}

// loadFactValues collects distinct fact values across the roster.
func loadFactValues(dbPath, category string) ([]string, error) {
	if category != "" && !types.IsValidFactCategory(types.FactCategory(category)) {
		return nil, fmt.Errorf("unknown fact category %q", category)
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ctx := context.Background()
	seen := make(map[string]bool)
	var values []string

	opts := storage.ListOptions{Page: 1, Limit: 200}
	for {
		page, err := store.ListPersons(ctx, opts)
		if err != nil {
			return nil, err
		}
		for i := range page.Items {
			facts, err := store.ListFacts(ctx, page.Items[i].ID)
			if err != nil {
				return nil, err
			}
			for _, fact := range facts {
				if category != "" && string(fact.Category) != category {
					continue
				}
				if !seen[fact.Value] {
					seen[fact.Value] = true
					values = append(values, fact.Value)
				}
			}
		}
		if !page.HasMore {
			return values, nil
		}
		opts.Page++
	}
}

func readLines(f *os.File) []string {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
