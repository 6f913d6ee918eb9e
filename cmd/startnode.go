package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"primechain/config"
	"primechain/logger"
	"primechain/rpc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var startNodeCmd = &cobra.Command{
	Use:   "startnode",
	Short: "Start the node with RPC server and optional mining",
	Long:  `Start the node: HTTP/JSON-RPC API over the chain, the Miller-Rabin oracle and the miner.`,
	RunE:  runStartNode,
}

func init() {
	flags := startNodeCmd.Flags()
	flags.Bool("mining", config.DefaultConfig.Mining, "Start mining on startup")
	flags.Int("rpcport", config.DefaultConfig.RPCPort, "JSON-RPC port")
	flags.String("rpcaddr", config.DefaultConfig.RPCAddr, "JSON-RPC address (0.0.0.0 to listen on all interfaces)")
	flags.Duration("mining_interval", config.DefaultConfig.MiningInterval, "Pause between mined blocks")
	viper.BindPFlag("mining", flags.Lookup("mining"))
	viper.BindPFlag("rpcport", flags.Lookup("rpcport"))
	viper.BindPFlag("rpcaddr", flags.Lookup("rpcaddr"))
	viper.BindPFlag("mining_interval", flags.Lookup("mining_interval"))
}

func runStartNode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("Starting primechain node...")
	logger.Infof("Effective Configuration: DataDir=%s, Persist=%t, RPC=%t %s:%d, Mining=%t, Rounds=%d, Workers=%d, LogLevel=%s",
		cfg.DataDir, cfg.Persist, cfg.EnableRPC, cfg.RPCAddr, cfg.RPCPort, cfg.Mining, cfg.Rounds, cfg.Workers, cfg.LogLevel)

	n, err := newNode(cfg)
	if err != nil {
		return err
	}
	defer n.close()

	var rpcServer *rpc.Server
	if cfg.EnableRPC {
		var gatherer prometheus.Gatherer
		if n.registry != nil {
			gatherer = n.registry
		}
		rpcServer = rpc.NewServer(&rpc.Config{Host: cfg.RPCAddr, Port: cfg.RPCPort}, n.blockchain, n.miner, n.engine, n.oracle, gatherer)
		if err := rpcServer.Start(); err != nil {
			return err
		}
	} else {
		logger.Info("RPC server is disabled via configuration.")
	}

	if cfg.Mining {
		n.miner.Start()
	} else {
		logger.Info("Mining is disabled.")
	}

	logger.Info("Node started successfully. Press Ctrl+C to stop.")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Received shutdown signal, stopping services...")

	if n.miner.IsRunning() {
		n.miner.Stop()
	}
	if rpcServer != nil {
		rpcServer.Stop()
	}

	logger.Info("Node stopped.")
	return nil
}
