package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/bootstrap"
	"github.com/yigit/schoolyard/internal/config"
)

// backend is what a command needs: the store, the service layer and a way to release both
type backend struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    *bootstrap.Store
	services *services.Services
	close    func()
}

// opener loads configPath and connects to the configured store. Tests swap it for an in-memory one.
type opener func(ctx context.Context, configPath string) (*backend, error)

func openBackend(ctx context.Context, configPath string) (*backend, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, err
	}
	store, err := bootstrap.OpenStore(ctx, cfg, lgr, false)
	if err != nil {
		return nil, err
	}
	svc, _, redisClient, err := bootstrap.BuildServices(ctx, cfg, store, lgr)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &backend{
		cfg:      cfg,
		logger:   lgr,
		store:    store,
		services: svc,
		close: func() {
			if redisClient != nil {
				redisClient.Close()
			}
			store.Close()
		},
	}, nil
}

type commandLine struct {
	configPath string
	open       opener
}

func newRootCommand(open opener) *cobra.Command {
	cli := &commandLine{open: open}

	root := &cobra.Command{
		Use:          "schoolctl",
		Short:        "Maintenance commands for schoolyard",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cli.configPath, "config", "c", filepath.Join("configs", "config.yaml"), "path to the config file")

	root.AddCommand(
		cli.migrateCommand(),
		cli.reconcileCommand(),
		cli.awardCommand(),
		cli.seedCommand(),
	)
	return root
}

// withBackend opens the backend for the duration of fn
func (cli *commandLine) withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := cli.open(ctx, cli.configPath)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer b.close()
	return fn(ctx, b)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
