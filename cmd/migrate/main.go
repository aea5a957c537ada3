package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/peakview/internal/pkg/config"
)

// Applied in order by "up"; "down" runs the matching .down.sql files in reverse.
var migrations = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_peaks.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("peakview-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		runFiles(ctx, pool, migrations)
	case "down":
		var down []string
		for i := len(migrations) - 1; i >= 0; i-- {
			f := downFile(migrations[i])
			if _, err := os.Stat(f); err == nil {
				down = append(down, f)
			}
		}
		runFiles(ctx, pool, down)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// downFile maps migrations/002_peaks.sql to migrations/002_peaks.down.sql.
func downFile(up string) string {
	return up[:len(up)-len(".sql")] + ".down.sql"
}

func runFiles(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Printf("%d migration files applied", len(files))
}
