package main

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/repository"
	"github.com/noah-isme/pairs-api/internal/roster"
	"github.com/noah-isme/pairs-api/internal/service"
	"github.com/noah-isme/pairs-api/pkg/config"
	"github.com/noah-isme/pairs-api/pkg/logger"
)

// cli carries the state shared by every subcommand.
type cli struct {
	out     io.Writer
	storage string
	file    string
	seed    int64
	verbose bool

	rosters *service.RosterService
	exports *service.ExportService
	close   func()
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, close: func() {}}
	root := &cobra.Command{
		Use:           "pairsctl",
		Short:         "Manage the daily pairing roster from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.storage, "storage", "", "roster storage driver: file, sqlite or postgres (default from ROSTER_STORAGE_DRIVER)")
	flags.StringVarP(&c.file, "file", "f", "", "roster file for the file driver (default from ROSTER_FILE)")
	flags.Int64Var(&c.seed, "seed", 0, "shuffle seed; 0 draws a random one")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log engine decisions to stderr")

	root.AddCommand(
		c.daysCmd(),
		c.studentsCmd(),
		c.sectionsCmd(),
		c.teamsCmd(),
		c.assignCmd(),
		c.shuffleCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.storage != "" {
		cfg.Roster.StorageDriver = c.storage
	}
	if c.file != "" {
		cfg.Roster.File = c.file
	}
	if c.seed != 0 {
		cfg.Roster.Seed = c.seed
	}

	logr := zap.NewNop()
	if c.verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
		if logr, err = logger.New(cfg); err != nil {
			return err
		}
	}

	store, closeStore, err := repository.OpenRosterStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	c.close = closeStore
	c.rosters = service.NewRosterService(store, nil, nil, roster.NewRand(cfg.Roster.Seed),
		service.RosterServiceConfig{RosterID: cfg.Roster.ID}, validator.New(), logr)
	c.exports = service.NewExportService(c.rosters, nil, nil, service.ExportConfig{}, logr, nil)
	return nil
}
