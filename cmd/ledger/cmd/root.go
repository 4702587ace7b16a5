package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/ledger/config"
	"github.com/rustyeddy/ledger/costbasis"
	"github.com/rustyeddy/ledger/internal/logging"
	"github.com/rustyeddy/ledger/ledger"
	"github.com/rustyeddy/ledger/store"
	"github.com/rustyeddy/ledger/trade"
	"github.com/rustyeddy/ledger/wallet"
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "A personal trading ledger with exact-decimal accounting",
	Long: `Ledger keeps the books for a personal trading account.

It provides tools for:
  - Recording buys and sells with checksummed order ids
  - Tracking balances per currency with exact decimals
  - FIFO and weighted-average cost basis accounting
  - Persisting everything in a single SQLite file

Complete documentation is available at https://github.com/rustyeddy/ledger`,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (defaults apply when omitted)")
}

// app bundles everything a command needs; newApp wires it from the
// config and close tears it down.
type app struct {
	cfg      *config.Config
	store    store.Store
	wallet   *wallet.Wallet
	ledger   *ledger.Ledger
	fifo     *costbasis.FIFO
	average  *costbasis.Average
	executor *trade.Executor
	log      *zap.Logger
}

func newApp() (*app, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	var s store.Store
	switch cfg.Store.Backend {
	case "memory":
		s = store.NewMemory()
	default:
		s, err = store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	a := &app{
		cfg:     cfg,
		store:   s,
		wallet:  wallet.New(s),
		ledger:  ledger.New(s),
		fifo:    costbasis.NewFIFO(s),
		average: costbasis.NewAverage(s),
		log:     log,
	}
	a.executor = trade.NewExecutor(a.wallet, a.ledger, a.fifo, a.average).WithLogger(log)
	return a, nil
}

func (a *app) close() {
	_ = a.log.Sync()
	if err := a.store.Close(); err != nil {
		a.log.Error("close store", zap.Error(err))
	}
}
