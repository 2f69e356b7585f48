package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raykavin/ruleforge/config"
	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/engine"
	"github.com/raykavin/ruleforge/exchange"
	zerologger "github.com/raykavin/ruleforge/logger/zerolog"
	"github.com/raykavin/ruleforge/notification"
	"github.com/raykavin/ruleforge/report"
	"github.com/raykavin/ruleforge/storage"
)

const dateTimeLayout = "2006-01-02 15:04:05"

var (
	configPath string

	// Download command flags
	symbol     string
	days       int
	timeframe  string
	outputFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "ruleforge",
		Short:   "Discovery and live tracking of profitable trading-rule parameterizations",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./ruleforge.yaml", "Configuration file path")

	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildDownloadCmd())
	rootCmd.AddCommand(buildReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the coordination engine",
		RunE:  runEngine,
	}
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := zerologger.New(cfg.LogLevel, dateTimeLayout, true, false)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}

	settings, err := cfg.EngineSettings()
	if err != nil {
		return err
	}

	feeder := exchange.NewBinanceFeeder(log,
		exchange.WithCredentials(cfg.Binance.APIKey, cfg.Binance.SecretKey),
		exchange.WithTimeframe(cfg.Binance.Timeframe),
	)

	var (
		opts     []engine.Option
		telegram *notification.Telegram
		eng      *engine.Engine
	)
	if cfg.Telegram.Enabled {
		telegram, err = notification.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log,
			notification.WithStatusFunc(func() string {
				if eng == nil {
					return "starting up"
				}
				return fmt.Sprintf("%d open pseudo positions", eng.Manager().OpenCount())
			}),
		)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithNotifier(telegram))
	}

	eng = engine.New(feeder, store, log, settings, cfg.ConfigSets, opts...)

	if telegram != nil {
		go telegram.Start()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	eng.Stop()
	return nil
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical candles to a CSV file",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Symbol (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 30, "Number of days to download")
	downloadCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1h", "Timeframe (e.g. 1h)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (e.g. ./btc.csv)")

	downloadCmd.MarkFlagRequired("symbol")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, _ []string) error {
	log, err := zerologger.New("info", dateTimeLayout, true, false)
	if err != nil {
		return err
	}

	feeder := exchange.NewBinanceFeeder(log, exchange.WithTimeframe(timeframe))

	candles, err := feeder.HistoricalCandles(cmd.Context(), symbol, days)
	if err != nil {
		return err
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	bar := progressbar.Default(int64(len(candles)), "writing candles")
	for _, candle := range candles {
		if err := writer.Write(candle.ToSlice(8)); err != nil {
			return err
		}
		bar.Add(1)
	}

	log.Infof("downloaded %d candles for %s to %s", len(candles), symbol, outputFile)
	return nil
}

func buildReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report [config-set-id]",
		Short: "Print stored coordination results",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}
	return reportCmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}

	results, err := store.Results(cmd.Context(), args[0], "")
	if err != nil {
		return err
	}

	fmt.Print(report.Summary(results))
	fmt.Println("Profit factor distribution:")
	return report.PnLHistogram(os.Stdout, results)
}

func openStorage(cfg *config.Config) (core.Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return storage.NewFromSQLite(cfg.Storage.Path, storage.DefaultSQLConfig())
	case config.BackendBunt:
		return storage.NewFromFile(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
