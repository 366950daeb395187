package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/config"
	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/localstore"
	"github.com/balkashynov/tomate/internal/logger"
	"github.com/balkashynov/tomate/internal/remote"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config

	remoteClient *remote.Client
	syncer       *remote.Syncer
)

var rootCmd = &cobra.Command{
	Use:   "tomate",
	Short: "Pomodoro timer and task manager",
	Long: `tomate is a command-line Pomodoro timer with a task manager.
Plan tasks with sub-tasks, tags and domains, focus on them with the timer,
and review your focus time, streaks and calendar from the terminal.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// loadConfig reads the config file and sets up logging, once per process
func loadConfig() error {
	if cfg != nil {
		return nil
	}
	path, err := configPath()
	if err != nil {
		return err
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if _, err := logger.Init(c.Log); err != nil {
		return err
	}
	cfg = c
	return nil
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// initDB loads the config and opens the task database
func initDB() error {
	if err := loadConfig(); err != nil {
		return err
	}
	if db.DB != nil {
		return nil
	}
	return db.Initialize(cfg.Database.Path)
}

// withDB wraps a command function to initialize the database first
func withDB(fn func(*cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if err := initDB(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fn(cmd, args)
	}
}

// openFocus builds the timer service on top of the database and resumes
// the persisted timer state. Finished sessions are pushed to the hosted
// backend when one is configured.
func openFocus() (*focus.Service, error) {
	store, err := localstore.Open(cfg.Database.StatePath)
	if err != nil {
		return nil, err
	}

	sink := focus.DBSink{}
	if p := openSyncer(); p != nil {
		sink.Remote = p
	}

	svc, err := focus.New(cfg.Timer(), focus.Options{
		Store:      store,
		Sink:       sink,
		TaskExists: focus.TaskExists,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.Load(); err != nil {
		return nil, err
	}
	return svc, nil
}

// openSyncer connects to the hosted backend. An unreachable backend only
// disables pushing.
func openSyncer() *remote.Syncer {
	if !cfg.Remote.Enabled() {
		return nil
	}
	if syncer != nil {
		return syncer
	}

	log := logger.Component("remote")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
	defer cancel()

	client, err := remote.Open(ctx, cfg.Remote.DSN)
	if err != nil {
		log.WithError(err).Warn("hosted backend unavailable, sessions stay local")
		return nil
	}
	remoteClient = client
	syncer = remote.NewSyncer(client, retryPolicy(), cfg.Remote.Timeout, log)
	return syncer
}

func retryPolicy() remote.RetryPolicy {
	p := remote.DefaultRetryPolicy()
	p.MaxTries = uint(cfg.Remote.MaxRetries)
	return p
}

// shutdown waits for pending pushes and releases everything opened
func shutdown() {
	if syncer != nil {
		syncer.Wait()
		syncer = nil
	}
	if remoteClient != nil {
		remoteClient.Close()
		remoteClient = nil
	}
	db.Close()
	logger.Close()
}

// logPath is where the TUIs send log output
func logPath() string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(filepath.Dir(cfg.Database.StatePath), "tomate.log")
}

func parseTaskID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task ID '%s'", arg)
	}
	return uint(id), nil
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.tomate/config.yaml)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(subCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
