package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/infrastructure/config"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
)

func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Shop at Tottus, Plaza Vea and Wong from the terminal",
		Long: `storefront is a client for the Tottus, Plaza Vea and Wong online stores.

The session and the cart are kept in local storage between runs. Every
setting can also be given as a STOREFRONT_ environment variable, e.g.
STOREFRONT_API_BASE_URL or STOREFRONT_STORAGE_DRIVER.`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", version, buildTime, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			env.shutdown(cmd.Context())
		},
	}
	root.SetIn(env.stdin)
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&env.configPath, "config", "c", "", "path to storefront.toml")
	flags.BoolVarP(&env.verbose, "verbose", "v", false, "log debug output to stderr")
	flags.StringVar(&env.langFlag, "lang", "es-PE", "locale used to format prices")

	root.AddGroup(
		&cobra.Group{ID: "session", Title: "Session:"},
		&cobra.Group{ID: "shop", Title: "Shopping:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
	)
	root.AddCommand(
		newLoginCommand(env),
		newRegisterCommand(env),
		newLogoutCommand(env),
		newWhoamiCommand(env),
		newShopsCommand(env),
		newProductsCommand(env),
		newSearchCommand(env),
		newCartCommand(env),
		newCheckoutCommand(env),
		newHistoryCommand(env),
		newAdminCommand(env),
		newServeCommand(env),
	)
	return root
}

// setup loads configuration and the logger once and installs them, with
// a notice printer on stderr, in the command context
func (env *environment) setup(cmd *cobra.Command) error {
	if env.cfg == nil {
		cfg, err := config.Load(env.configPath)
		if err != nil {
			return err
		}
		env.cfg = cfg
	}

	if env.log == nil {
		logCfg := logger.CLIConfig()
		logCfg.Level = env.cfg.Log.Level
		logCfg.Format = env.cfg.Log.Format
		logCfg.Output = env.cfg.Log.Output
		if env.verbose {
			logCfg.Level = "debug"
		}
		log, err := logger.New(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		env.log = log
	}

	tag, err := language.Parse(env.langFlag)
	if err != nil {
		tag = language.LatinAmericanSpanish
	}
	env.lang = tag

	ctx := logger.WithContext(cmd.Context(), env.log)
	ctx = notify.WithNotifier(ctx, notify.NewPrinter(env.stderr))
	cmd.SetContext(ctx)
	return nil
}

// open wires the services on first use
func (env *environment) open(cmd *cobra.Command) (*app, error) {
	if env.app != nil {
		return env.app, nil
	}
	a, err := newApp(cmd.Context(), env)
	if err != nil {
		return nil, err
	}
	env.app = a
	cmd.SetContext(logger.WithContext(cmd.Context(), a.log))
	return a, nil
}

// shutdown closes the services if a command opened them
func (env *environment) shutdown(ctx context.Context) {
	if env.app != nil {
		env.app.close(ctx)
		env.app = nil
	}
}
