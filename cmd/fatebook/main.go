package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/Fatebook/config"
	"github.com/Alias1177/Fatebook/internal/api/fatebook"
	appconfig "github.com/Alias1177/Fatebook/internal/config"
	"github.com/Alias1177/Fatebook/internal/forecast"
	"github.com/Alias1177/Fatebook/internal/host/terminal"
	"github.com/Alias1177/Fatebook/internal/plugin"
	"github.com/Alias1177/Fatebook/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if _, set := os.LookupEnv("LOG_LEVEL"); !set {
		lvl = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		// plugin failures have already been shown as notices
		if models.KindOf(err) == models.KindUnknown {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(cfg *appconfig.Config) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fatebook",
		Short:         "Create and preview Fatebook predictions",
		Long:          "fatebook creates forecast questions on fatebook.io, copies their markdown link, and previews question links found in notes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to settings file (default: XDG config dir)")

	host := terminal.New(root, terminal.Options{
		Interactive: isTerminal(os.Stdin),
		EnvAPIKey:   cfg.FatebookAPIKey,
	})
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		store, err := config.NewFileStore(configPath)
		if err != nil {
			return err
		}
		log.Debug().Str("path", store.Path()).Msg("Using settings file")
		host.UseStore(store)
		return nil
	}

	client := fatebook.NewClient(fatebook.ClientOptions{
		BaseURL:        cfg.FatebookBaseURL,
		RequestTimeout: cfg.RequestTimeoutDuration(),
		RequestsPerSec: cfg.RequestsPerSec,
	})
	p := plugin.New(forecast.NewSubmitter(client))
	p.Register(host)

	root.AddCommand(newPreviewCmd(p, host))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fatebook %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return root
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
