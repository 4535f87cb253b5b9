// Command relay runs the JSON-RPC gateway: an Ethereum-compatible RPC
// surface served from mirror node reads and consensus node submissions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hashgraph/json-rpc-relay-go/cache"
	"github.com/hashgraph/json-rpc-relay-go/hapi"
	"github.com/hashgraph/json-rpc-relay-go/hbar"
	"github.com/hashgraph/json-rpc-relay-go/metrics"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/pool"
	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	"github.com/hashgraph/json-rpc-relay-go/server"
	"github.com/hashgraph/json-rpc-relay-go/server/config"
	"github.com/hashgraph/json-rpc-relay-go/tracer"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the relay's command tree.
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "relay",
		Short:         "JSON-RPC relay between Ethereum tooling and the Hedera network",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	logger := log.NewLogger(os.Stderr)

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	localCache, err := cache.NewLocalCache(cfg.CacheEntries, logger)
	if err != nil {
		return err
	}
	memo := cache.NewMemoizer(localCache, logger, mirror.DefaultMemoPolicies())

	mc, err := mirror.NewClient(cfg.MirrorNodeURL, nil, memo, logger)
	if err != nil {
		return err
	}

	registry := hbar.NewRegistry(localCache, logger)
	if cfg.HbarSpendingPlansConfig != "" {
		plans, err := hbar.ParsePlansConfig(cfg.HbarSpendingPlansConfig)
		if err != nil {
			return err
		}
		if err := registry.Populate(ctx, plans); err != nil {
			return err
		}
	}
	limiter := hbar.NewLimiter(localCache, registry, cfg.HbarBudget, logger)

	var submitter backend.ConsensusSubmitter
	if !cfg.ReadOnly {
		supervisor, err := hapi.NewSupervisor(
			hapi.NewHederaClientFactory(cfg.HederaNetwork, cfg.Operator),
			hapi.Config{
				TransactionReset:    cfg.HapiClientTransactionReset,
				DurationReset:       cfg.HapiClientDurationReset,
				ErrorStatusReset:    cfg.HapiClientErrorReset,
				FileAppendChunkSize: cfg.FileAppendChunkSize,
				FileAppendMaxChunks: cfg.FileAppendMaxChunks,
			},
			limiter, mc, logger,
		)
		if err != nil {
			return err
		}
		submitter = supervisor
	}

	b := backend.New(
		cfg,
		logger,
		mc,
		submitter,
		pool.NewPendingPool(logger),
		pool.NewLockRegistry(0, 0, 0, logger),
		limiter,
		tracer.New(mc, localCache, cfg.ChainID, logger),
		localCache,
	)

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(notifyCtx)

	if _, err := server.StartJSONRPC(gctx, logger, g, cfg, b); err != nil {
		return err
	}
	g.Go(func() error {
		return metrics.StartMetricsServer(gctx, logger, cfg.MetricsAddress)
	})

	return g.Wait()
}
