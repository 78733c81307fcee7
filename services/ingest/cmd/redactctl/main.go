package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"redactd/pkg/bus"
	"redactd/pkg/db"
)

const jobsQueuedSubject = "redactd.jobs.queued"

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "redactctl",
		Short:         "Operational utility for the redactd ingest pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newJobsCommand())
	return cmd
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			return db.MigrationStatus(ctx, pool)
		},
	})

	return cmd
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and repair analysis jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsRequeueCommand())
	return cmd
}

type jobRow struct {
	ID              uuid.UUID  `db:"id"`
	ItemID          uuid.UUID  `db:"item_id"`
	Kind            string     `db:"kind"`
	Status          string     `db:"status"`
	ProgressPercent int        `db:"progress_percent"`
	CreatedAt       time.Time  `db:"created_at"`
	EndedAt         *time.Time `db:"ended_at"`
}

func newJobsListCommand() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List jobs, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			query := `
SELECT id, item_id, kind, status, progress_percent, created_at, ended_at
FROM jobs
`
			queryArgs := []any{}
			if status != "" {
				query += "WHERE status = $1\n"
				queryArgs = append(queryArgs, strings.ToUpper(status))
			}
			query += fmt.Sprintf("ORDER BY created_at DESC\nLIMIT %d", limit)

			var rows []jobRow
			if err := db.Select(ctx, pool, &rows, query, queryArgs...); err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, row := range rows {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
					row.ID, row.ItemID, row.Kind, row.Status, row.ProgressPercent,
					row.CreatedAt.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "%d job(s)\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show jobs in this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of jobs to print")
	return cmd
}

type requeueRow struct {
	JobID        uuid.UUID `db:"job_id"`
	ItemID       uuid.UUID `db:"item_id"`
	ProjectID    uuid.UUID `db:"project_id"`
	StoragePath  string    `db:"storage_path"`
	PrincipalID  uuid.UUID `db:"principal_id"`
	PolicyID     string    `db:"policy_id"`
	RetryAttempt int       `db:"retry_attempt"`
}

// Requeue covers the gap left by fire-and-forget publishing: a job row can be
// QUEUED with no message on the stream if the publish failed after commit.
// Re-publishing is safe because the worker treats delivery as at-least-once.
func newJobsRequeueCommand() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Re-publish stale QUEUED analysis jobs to the worker stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			cutoff := time.Now().UTC().Add(-olderThan)
			var rows []requeueRow
			err = db.Select(ctx, pool, &rows, `
SELECT j.id AS job_id,
       j.item_id,
       i.project_id,
       i.storage_path,
       p.owner_id AS principal_id,
       COALESCE(j.metadata->>'policy_id', '') AS policy_id,
       COALESCE((j.metadata->>'retry_attempt')::int, 0) AS retry_attempt
FROM jobs j
JOIN items i ON i.id = j.item_id
JOIN projects p ON p.id = i.project_id
WHERE j.status = 'QUEUED' AND j.kind = 'ANALYZE' AND j.created_at < $1
ORDER BY j.created_at ASC
LIMIT $2
`, cutoff, limit)
			if err != nil {
				return fmt.Errorf("find stale jobs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "no stale queued jobs")
				return nil
			}

			if dryRun {
				for _, row := range rows {
					fmt.Fprintf(out, "would requeue %s (item %s)\n", row.JobID, row.ItemID)
				}
				return nil
			}

			natsURL := strings.TrimSpace(os.Getenv("NATS_URL"))
			if natsURL == "" {
				return errors.New("NATS_URL is required")
			}
			jobBus, err := bus.New(natsURL)
			if err != nil {
				return fmt.Errorf("connect bus: %w", err)
			}
			defer jobBus.Close()

			requeued := 0
			for _, row := range rows {
				payload := map[string]any{
					"job_id":        row.JobID,
					"item_id":       row.ItemID,
					"project_id":    row.ProjectID,
					"storage_path":  row.StoragePath,
					"principal_id":  row.PrincipalID,
					"policy_id":     row.PolicyID,
					"kind":          "ANALYZE",
					"retry_attempt": row.RetryAttempt,
				}
				if err := jobBus.Publish(ctx, jobsQueuedSubject, payload); err != nil {
					return fmt.Errorf("publish job %s: %w", row.JobID, err)
				}
				fmt.Fprintf(out, "requeued %s (item %s)\n", row.JobID, row.ItemID)
				requeued++
			}
			fmt.Fprintf(out, "%d job(s) requeued\n", requeued)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 10*time.Minute, "Only requeue jobs queued at least this long ago")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of jobs to requeue")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print matching jobs without publishing")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.Open(ctx, dsn)
}
