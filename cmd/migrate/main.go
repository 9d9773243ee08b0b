package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"aivideo/internal/infra"
	"aivideo/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run applies the schema in one transaction. Deferred cleanup runs before
// main decides the exit code.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		dsnFlag    string
		dryRunFlag bool
	)
	fs.StringVar(&dsnFlag, "dsn", "", "postgres connection string (defaults to DATABASE_URL)")
	fs.BoolVar(&dryRunFlag, "dry-run", false, "print the statements instead of executing them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if dryRunFlag {
		for _, stmt := range sqlinline.Schema {
			fmt.Fprintln(stdout, strings.TrimSpace(stmt))
			fmt.Fprintln(stdout)
		}
		return nil
	}

	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return errors.New("DATABASE_URL or -dsn is required")
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "migrate").Logger()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for i, stmt := range sqlinline.Schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
		logger.Debug().Int("statement", i+1).Msg("applied")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info().Int("statements", len(sqlinline.Schema)).Msg("schema up to date")
	return nil
}
