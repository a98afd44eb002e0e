package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AceKusamaDev/solbotrader2/internal/bot"
	"github.com/AceKusamaDev/solbotrader2/internal/config"
	"github.com/AceKusamaDev/solbotrader2/internal/journal"
	"github.com/AceKusamaDev/solbotrader2/internal/jupiter"
	"github.com/AceKusamaDev/solbotrader2/internal/logger"
	"github.com/AceKusamaDev/solbotrader2/internal/oracle"
	"github.com/AceKusamaDev/solbotrader2/internal/reporter"
	"github.com/AceKusamaDev/solbotrader2/internal/solana"
	"github.com/AceKusamaDev/solbotrader2/internal/swap"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.File)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the trade journal
	jnl, err := journal.Open(cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to open trade journal", zap.Error(err))
	}

	// Wire up the external collaborators
	prices := oracle.NewClient(&cfg.Oracle, log)
	jup := jupiter.NewClient(&cfg.Jupiter, log)
	rpc := solana.NewClient(&cfg.Solana, log)

	// A live executor exists only when a signing identity is configured;
	// without one the bot can still run in test mode.
	var live swap.TradeExecutor
	if cfg.Solana.PrivateKey != "" {
		signer, err := solana.NewKeypairSigner(cfg.Solana.PrivateKey, cfg.Solana.WalletAddress, rpc)
		if err != nil {
			log.Fatal("Failed to load signing key", zap.Error(err))
		}
		live = swap.NewExecutor(jup, signer, rpc, log)
		log.Info("Signer loaded, live trading available", zap.String("wallet", signer.PublicKey()))
	} else {
		log.Warn("No signing key configured, only test mode trading is available")
	}

	sim := swap.NewSimulator(log, time.Now().UnixNano())
	sim.FailureRate = 0.1

	ctrl := bot.New(log, live, sim, prices, cfg.Trading.Settings(),
		bot.WithJournal(jnl),
		bot.WithSlippageBps(int(cfg.Trading.SlippagePercent*100)),
		bot.WithHistoryLimit(cfg.Trading.HistoryLimit),
		bot.WithMaxConsecutiveFailures(cfg.Trading.MaxConsecutiveFailures),
	)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := bot.NewAPIServer(ctx, ctrl, cfg.Trading.APIPort, log)
	api.Start()

	if cfg.Trading.Autostart {
		if err := ctrl.Start(ctx); err != nil {
			log.Fatal("Failed to start trading bot", zap.Error(err))
		}
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	// Stop waits for an in-flight cycle to record its outcome.
	ctrl.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := api.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}

	reporter.WriteSessionReport(os.Stdout, ctrl.Snapshot())
	log.Info("Bot has been shut down.")
}
