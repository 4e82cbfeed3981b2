package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vigilance-engine/internal/audit"
	"vigilance-engine/internal/clock"
	"vigilance-engine/internal/config"
	"vigilance-engine/internal/crypto"
	"vigilance-engine/internal/logger"
	"vigilance-engine/internal/repository"
	"vigilance-engine/internal/scorer"
	"vigilance-engine/internal/server"
	"vigilance-engine/internal/service"
)

const defaultConfigPath = "configs/config.yml"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "vigilance",
		Short:         "Vigilance scores child messages for threats and freezes accounts on critical risk.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "path to the YAML config file")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(cfgFile, cmd.Flags().Changed("config"))
	}

	root.AddCommand(
		newServeCmd(load),
		newAuditCmd(load),
		newScoresCmd(load),
		newEncodeCmd(load),
	)
	return root
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

// loadConfig falls back to defaults only when the implicit default file is absent.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

func newServeCmd(load configLoader) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			log, err := logger.New(cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			log.Info("Starting Vigilance Engine...", zap.String("environment", cfg.Environment))

			codec, err := crypto.NewPayloadCodecFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize payload codec: %w", err)
			}

			recorder := audit.NewFileRecorder(cfg.Audit.Dir, log)
			defer func() {
				if err := recorder.Close(); err != nil {
					log.Warn("Failed to close audit logs", zap.Error(err))
				}
			}()

			clk := clock.NewMonotonic(nil)
			svc := service.NewPipelineService(service.Dependencies{
				Codec:    codec,
				Scorer:   scorer.NewDefaultScorer(),
				Freezes:  repository.NewFreezeRepository(clk, log),
				Messages: repository.NewMessageRepository(),
				Recorder: recorder,
				Clock:    clk,
				Logger:   log,
			}, service.Policy{
				FlagThreshold:       cfg.Policy.FlagThreshold,
				AutoFreezeThreshold: cfg.Policy.AutoFreezeThreshold,
			}, !cfg.IsProduction())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.NewServer(svc, cfg, log).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "override server.port")
	return cmd
}

func newAuditCmd(load configLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := checkLimit(limit); err != nil {
				return err
			}

			recorder := audit.NewFileRecorder(cfg.Audit.Dir, zap.NewNop())
			defer recorder.Close()

			return printJSON(cmd.OutOrStdout(), recorder.RecentEntries(limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultRecentLimit, "number of entries to show")
	return cmd
}

func newScoresCmd(load configLoader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Print the most recent scoring events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := checkLimit(limit); err != nil {
				return err
			}

			recorder := audit.NewFileRecorder(cfg.Audit.Dir, zap.NewNop())
			defer recorder.Close()

			return printJSON(cmd.OutOrStdout(), recorder.RecentScores(limit))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultRecentLimit, "number of events to show")
	return cmd
}

// newEncodeCmd produces request payloads for manual testing with curl.
func newEncodeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <text>",
		Short: "Encode a message the way a device would send it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			codec, err := crypto.NewPayloadCodecFromConfig(cfg)
			if err != nil {
				return err
			}

			encoded, signature, err := codec.Encode(args[0])
			if err != nil {
				return err
			}

			out := map[string]string{"encryptedPayload": encoded}
			if signature != "" {
				out["signature"] = signature
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func checkLimit(limit int) error {
	if limit <= 0 || limit > service.MaxRecentLimit {
		return fmt.Errorf("limit must be between 1 and %d", service.MaxRecentLimit)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
