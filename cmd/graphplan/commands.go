package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/graphplan/pkg/config"
	"github.com/dd0wney/graphplan/pkg/logging"
	"github.com/dd0wney/graphplan/pkg/query"
	"github.com/dd0wney/graphplan/pkg/storage"
)

// cli holds global flags and the app opened for the running command.
type cli struct {
	configPath string
	dataDir    string
	logLevel   string
	app        *app
}

// rootCmd builds the command tree. Callers close c after Execute returns.
func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphplan",
		Short: "Plan and run pattern queries over a property graph",
		Long: `graphplan chooses index, label or full scans for each node pattern,
joins patterns with cartesian products and filters, sorts and projects rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.dataDir != "" {
				cfg.Storage.DataDir = c.dataDir
			}
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
			}
			c.app, err = newApp(cfg)
			if err != nil {
				return err
			}
			logging.SetDefaultLogger(c.app.logger)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&c.dataDir, "data-dir", "", "badger data directory (overrides config)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		c.queryCmd(),
		c.explainCmd(),
		c.indexCmd(),
		c.loadCmd(),
		c.seedCmd(),
		c.statsCmd(),
		c.shellCmd(),
	)
	return rootCmd
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) queryCmd() *cobra.Command {
	var profile bool
	cmd := &cobra.Command{
		Use:     "query [statement]",
		Short:   "Run a MATCH query or index command",
		Aliases: []string{"q"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if profile {
				text = "PROFILE " + text
			}
			rs, err := c.app.execute(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(rs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&profile, "profile", false, "run under PROFILE and print operator statistics")
	return cmd
}

func (c *cli) explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [query]",
		Short: "Print the plan chosen for a MATCH query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.app.executor.Explain(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func (c *cli) indexCmd() *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage property indexes",
	}

	indexStatement := func(drop bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ic := query.IndexCommand{Drop: drop, Label: strings.TrimPrefix(args[0], ":"), Property: args[1]}
			rs, err := c.app.execute(cmd.Context(), ic.String())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(rs))
			return nil
		}
	}

	indexCmd.AddCommand(
		&cobra.Command{
			Use:   "create <label> <property>",
			Short: "Build an index on label.property",
			Args:  cobra.ExactArgs(2),
			RunE:  indexStatement(false),
		},
		&cobra.Command{
			Use:   "drop <label> <property>",
			Short: "Remove the index on label.property",
			Args:  cobra.ExactArgs(2),
			RunE:  indexStatement(true),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List indexes of the current graph version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), renderIndexes(c.app.graph.Catalog()))
				return nil
			},
		},
	)
	return indexCmd
}

func (c *cli) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <fixture.yaml>",
		Short: "Load nodes and indexes from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFixture(args[0])
			if err != nil {
				return err
			}
			stats, err := f.apply(c.app.graph)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d nodes and %d indexes (version %d)\n",
				stats.nodes, stats.indexes, c.app.graph.Version())
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the graph with demo data",
	}
	seedCmd.AddCommand(&cobra.Command{
		Use:   "social",
		Short: "People with ages and the countries they may live in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := socialFixture().apply(c.app.graph)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d nodes and %d indexes\n", stats.nodes, stats.indexes)
			return nil
		},
	})
	return seedCmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(c.app.graph, c.app.metrics))
			return nil
		},
	}
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive query shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := newShell(c.app, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.run(cmd.Context())
		},
	}
}

func graphSummary(g *storage.Graph) string {
	return fmt.Sprintf("%d nodes, %d indexes, version %d", g.NodeCount(), g.Catalog().Len(), g.Version())
}
