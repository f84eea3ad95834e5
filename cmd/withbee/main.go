// Command withbee is an interactive shell for building queries with
// common table expressions, rendering them for any supported driver and
// running them against a database.
//
// Configuration is read from withbee.yaml, WITHBEE_* environment
// variables and flags:
//
//	withbee --driver sqlite --dsn ':memory:'
//	withbee -e 'from users' -e 'with u' -e 'from u' -e sql
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bawdo/withbee/internal/config"
	"github.com/bawdo/withbee/visitors"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		execs   []string
	)

	cmd := &cobra.Command{
		Use:   "withbee",
		Short: "Build, render and run common table expression queries",
		Long: `withbee is an interactive shell over the withbee query builder.

Queries are built clause by clause, pushed as named expressions with
'with <name>', and rendered for mysql, mariadb, pgsql, sqlite, sqlsrv,
oracle, singlestore or firebird.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			lvl, _ := cfg.Level()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

			sess := NewSession(cfg, logger, cmd.OutOrStdout())
			defer sess.close()

			ctx := cmd.Context()
			if cfg.DSN != "" {
				if err := sess.connect(ctx, cfg.DSN); err != nil {
					logger.Warn("initial connect failed", slog.Any("error", err))
				}
			}

			if len(execs) > 0 {
				for _, line := range execs {
					if err := sess.Execute(ctx, line); err != nil {
						return fmt.Errorf("%s: %w", line, err)
					}
				}
				return nil
			}
			return repl(ctx, sess, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./withbee.yaml)")
	flags.StringArrayVarP(&execs, "exec", "e", nil, "run a shell command and exit (repeatable)")
	flags.String("driver", "", "driver identifier ("+strings.Join(visitors.Drivers(), ", ")+")")
	flags.String("dsn", "", "data source name to connect to on start")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Duration("statement-timeout", 0, "bound on each write statement")
	flags.Bool("legacy-offset", false, "paginate sqlsrv with row_number()")
	flags.Bool("params", true, "render values as ? placeholders")

	_ = cmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return visitors.Drivers(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func repl(ctx context.Context, sess *Session, errOut io.Writer) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "withbee> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(sess.out, "withbee %s (%s), type 'help' for commands, 'exit' to quit\n", version, sess.driver)
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(ctx, line); err != nil {
			_, _ = fmt.Fprintf(errOut, "  Error: %v\n", err)
		}
	}
	return nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".withbee_history")
}
