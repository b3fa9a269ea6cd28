package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanqian/daily-briefing/internal/bootstrap"
	"github.com/yanqian/daily-briefing/internal/infra/config"
	"github.com/yanqian/daily-briefing/internal/infra/vault"
	"github.com/yanqian/daily-briefing/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "briefing",
		Short:         "Twice-daily briefing with weather, outfits, news and CVEs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger.New()
			return nil
		},
	}
	root.AddCommand(
		newServeCommand(rt),
		newRunCommand(rt),
		newPreviewCommand(rt),
		newCleanCommand(rt),
		newTokenCommand(rt),
		newSealCommand(rt),
	)
	return root
}

func (rt *runtime) app() (*bootstrap.App, error) {
	app, err := initializeApp(rt.cfg, rt.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to wire application: %w", err)
	}
	return app, nil
}

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and the slot scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			return app.Serve(cmd.Context())
		},
	}
}

func newRunCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Produce and send the briefing for the current slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			report, err := app.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newPreviewCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Re-send the current weekly wardrobe preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			report, err := app.SendPreview(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newCleanCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete dated output files from previous days",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.app()
			if err != nil {
				return err
			}
			removed, err := app.Clean(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files\n", removed)
			return nil
		},
	}
}

func newTokenCommand(rt *runtime) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := initializeAuth(rt.cfg, rt.logger).Issue(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return printJSON(cmd, token)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator identity recorded in the token")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newSealCommand(rt *runtime) *cobra.Command {
	var input, output, keyPath string
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a plaintext SMTP credentials file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = rt.cfg.Mail.CredentialsPath
			}
			if keyPath == "" {
				keyPath = rt.cfg.Mail.KeyPath
			}
			plaintext, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read credentials: %w", err)
			}
			key, created, err := vault.EnsureKey(keyPath)
			if err != nil {
				return err
			}
			if created {
				rt.logger.Info("generated new vault key", "path", keyPath)
			}
			if err := vault.WriteSealed(output, key, plaintext); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sealed credentials written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "in", "", "plaintext credentials JSON")
	cmd.Flags().StringVar(&output, "out", "", "sealed output path (defaults to mail.credentialsPath)")
	cmd.Flags().StringVar(&keyPath, "key", "", "key file, created when absent (defaults to mail.keyPath)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
