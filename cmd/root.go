// Package cmd wires CodexPotter's CLI entry point: cobra command parsing,
// viper flag/env binding, config-file notice checks, and the call into
// internal/session.Run that drives the actual app-server-backed session.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	viperlib "github.com/spf13/viper"

	"github.com/breezewish/codex-potter-sub000/internal/config"
	"github.com/breezewish/codex-potter-sub000/internal/log"
	"github.com/breezewish/codex-potter-sub000/internal/project"
	"github.com/breezewish/codex-potter-sub000/internal/round"
	"github.com/breezewish/codex-potter-sub000/internal/session"
	"github.com/breezewish/codex-potter-sub000/internal/telemetry"
)

var (
	version = "dev"

	debugFlag      bool
	otelStdoutFlag bool

	// viper binds the four launch-config flags registered by
	// internal/config.RegisterFlags; it does not govern config.toml itself,
	// which internal/config.Store reads and edits directly per spec.md §6's
	// "preserved across edits" requirement that a generic unmarshal would break.
	viper = viperlib.New()
)

var rootCmd = &cobra.Command{
	Use:     "codex-potter <prompt>",
	Short:   "Drive a Codex app-server session from the terminal",
	Long:    `codex-potter spawns a Codex app-server child process and runs it through a bounded series of rounds against a user-supplied prompt, journaling progress to disk as it goes.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE:    runApp,
}

func init() {
	config.RegisterFlags(rootCmd, viper)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also: CODEXPOTTER_DEBUG=1)")
	rootCmd.Flags().BoolVar(&otelStdoutFlag, "otel-stdout", false,
		"export round/backend-session traces to stdout")
}

func runApp(cmd *cobra.Command, args []string) error {
	userPrompt := strings.TrimSpace(args[0])
	if userPrompt == "" {
		return fmt.Errorf("codex-potter: prompt must not be empty")
	}

	debug := os.Getenv("CODEXPOTTER_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("CODEXPOTTER_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "codexpotter")
		if err != nil {
			return fmt.Errorf("codex-potter: initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatCLI, "codex-potter starting", "version", version, "logPath", logPath)
	}

	cliCfg, err := config.ResolveCLIConfig(cmd, viper)
	if err != nil {
		return err
	}

	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("codex-potter: getting current directory: %w", err)
	}

	if err := maybeNoteGlobalGitignore(workdir); err != nil {
		log.Warn(log.CatCLI, "global gitignore check failed", "error", err)
	}

	provider, err := telemetry.NewStdoutProviderFromFlag(otelStdoutFlag)
	if err != nil {
		return fmt.Errorf("codex-potter: initializing telemetry: %w", err)
	}
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := session.Run(ctx, session.Options{
		CLI:        cliCfg,
		Workdir:    workdir,
		UserPrompt: userPrompt,
		Telemetry:  provider,
		NewRenderer: func() round.TurnRenderer {
			return session.NewHeadlessRenderer(os.Stdout)
		},
	})
	if err != nil {
		return fmt.Errorf("codex-potter: %w", err)
	}

	if result.ExitCode != 0 {
		if result.FatalMessage != "" {
			fmt.Fprintln(os.Stderr, result.FatalMessage)
		}
		os.Exit(result.ExitCode)
	}
	return nil
}

// maybeNoteGlobalGitignore checks whether the user's global gitignore covers
// ".codexpotter" and logs a one-time notice if not. The interactive
// accept/dismiss prompt itself is the out-of-scope TUI surface spec.md §1
// names; this only performs the pure decision + detection half that the
// core owns, and persists the "don't ask again" choice nowhere on its own
// since there is no prompt response to persist it from.
func maybeNoteGlobalGitignore(workdir string) error {
	store, err := config.NewDefaultStore()
	if err != nil {
		return err
	}
	hide, err := store.NoticeHideGitignorePrompt()
	if err != nil {
		return err
	}

	status, err := project.DetectGlobalGitignoreStatus(workdir)
	if err != nil {
		return err
	}

	if project.ShouldPromptGlobalGitignore(hide, status) {
		log.Info(log.CatCLI, "global gitignore does not exclude .codexpotter",
			"path", status.PathDisplay)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
