// Package main prints the validation audit trail stored in Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"greenlight/internal/platform/config"
	"greenlight/internal/platform/database"
	"greenlight/pkg/platform/audit"
	"greenlight/pkg/platform/audit/store/postgres"
)

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (default $DATABASE_URL)")
		subject = flag.String("subject", "", "Only events for this token subject")
		limit   = flag.Int("limit", 50, "Number of recent events when -subject is not set")
		asJSON  = flag.Bool("json", false, "Output as JSON lines")
	)
	flag.Parse()

	if err := run(*dsn, *subject, *limit, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dsn, subject string, limit int, asJSON bool) error {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return fmt.Errorf("a DSN is required (-dsn or DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.New(ctx, config.DatabaseConfig{URL: dsn, MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close() //nolint:errcheck // process exit

	store := postgres.New(pool.DB())
	var events []audit.Event
	if subject != "" {
		events, err = store.ListBySubject(ctx, subject)
	} else {
		events, err = store.ListRecent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tOUTCOME\tSUBJECT\tJURISDICTION\tVALID UNTIL\tREASON")
	for _, e := range events {
		validUntil := "-"
		if !e.ValidUntil.IsZero() {
			validUntil = e.ValidUntil.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.UTC().Format(time.RFC3339),
			e.Action, e.Outcome, e.Subject,
			jurisdiction(e.Country, e.Region), validUntil, e.Reason,
		)
	}
	return tw.Flush()
}

func jurisdiction(country, region string) string {
	switch {
	case country == "":
		return "-"
	case region == "":
		return country
	default:
		return country + "/" + region
	}
}
