package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/logger"
	"github.com/balkashynov/tomate/internal/remote"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push all sessions and stats to the hosted database",
	Long: `Push the full session history and the stats row to the hosted Postgres
database configured as remote.dsn (or TOMATE_REMOTE_DSN). Sessions already
present remotely are left untouched, so sync can run any number of times.`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		if !cfg.Remote.Enabled() {
			fmt.Println("No hosted database configured. Set remote.dsn in the config or TOMATE_REMOTE_DSN.")
			return
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client, err := remote.Open(ctx, cfg.Remote.DSN)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer client.Close()

		if err := client.EnsureSchema(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sessions, err := db.GetAllSessions()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		st, err := db.RefreshStats(time.Now())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		n, err := remote.SyncAll(ctx, client, retryPolicy(), logger.Component("remote"), sessions, st)
		if err != nil {
			fmt.Printf("Error after %d of %d sessions: %v\n", n, len(sessions), err)
			return
		}

		remoteCount, err := client.CountSessions(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("☁️  Pushed %d sessions and stats, %d sessions stored remotely\n", n, remoteCount)
	}),
}

func init() {
	syncCmd.Flags().Duration("timeout", 2*time.Minute, "Give up after this long")
}
