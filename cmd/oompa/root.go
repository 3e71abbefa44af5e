package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tyler-paryz/oompa-social/config"
	"github.com/tyler-paryz/oompa-social/pkg/logger"
)

// rootOptions holds global flags and what PersistentPreRunE derives from them.
type rootOptions struct {
	features []string
	debug    bool

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "oompa",
		Short: "In-memory social network demo",
		Long: `oompa runs the social stores (posts, conversations, friends) in memory,
seeded with the demo community.

Configuration is read from OOMPA_* environment variables. Feature flags can
be overridden per run:

  oompa demo --feature social.dedupe_friend_requests --feature notify.like=false`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringArrayVar(&opts.features, "feature", nil, "feature flag override, name or name=bool (repeatable)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newDemoCmd(opts),
		newLoginCmd(opts),
		newFeedCmd(opts),
		newInboxCmd(opts),
		newWorkerCmd(opts),
	)
	return root
}

func (o *rootOptions) load() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Features.Apply(o.features); err != nil {
		return err
	}
	if o.debug {
		cfg.App.Debug = true
	}
	o.cfg = cfg

	o.log = logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.LogLevel()),
		Format: logger.ParseFormat(cfg.Observability.Format),
	}).With("app", cfg.App.Name, "env", string(cfg.App.Environment))
	slog.SetDefault(o.log)
	return nil
}
