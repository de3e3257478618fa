package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"UnitCoinMiner/internal/save"
	"UnitCoinMiner/internal/server"
)

var (
	configPath string
	addr       string
	logLevel   string
	noSave     bool

	ambient         float64
	overheatAt      float64
	recoverAt       float64
	passiveCooldown float64
	jitter          float64
)

var (
	rootCmd = &cobra.Command{
		Use:          "unitcoin",
		Short:        "UnitCoin Miner game server",
		SilenceUsage: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE:  runServe,
	}
	savesCmd = &cobra.Command{
		Use:   "saves",
		Short: "Inspect the room save store",
	}
	savesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved rooms",
		RunE:  runSavesList,
	}
	savesDeleteCmd = &cobra.Command{
		Use:   "delete [room...]",
		Short: "Delete saved rooms",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSavesDelete,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/unitcoin.yaml", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	f := serveCmd.Flags()
	f.StringVar(&addr, "addr", "", "address to listen on (e.g., 127.0.0.1:8080)")
	f.BoolVar(&noSave, "no-save", false, "disable persistence")
	f.Float64Var(&ambient, "thermal-ambient", 0, "override ambient temperature")
	f.Float64Var(&overheatAt, "thermal-overheat", 0, "override overheat trip temperature")
	f.Float64Var(&recoverAt, "thermal-recover", 0, "override recovery temperature")
	f.Float64Var(&passiveCooldown, "thermal-cooldown", 0, "override per-tick cooldown while overheated")
	f.Float64Var(&jitter, "thermal-jitter", 0, "override temperature jitter amplitude")

	savesCmd.AddCommand(savesListCmd, savesDeleteCmd)
	rootCmd.AddCommand(serveCmd, savesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (server.AppConfig, *slog.Logger, error) {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger := server.NewLogger(cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// floatFlag returns a pointer to v when the flag was set on the command line.
func floatFlag(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if noSave {
		cfg.Save.Enabled = false
	}
	cfg = cfg.ApplyOverrides(server.ThermalOverrides{
		Ambient:         floatFlag(cmd, "thermal-ambient", ambient),
		OverheatAt:      floatFlag(cmd, "thermal-overheat", overheatAt),
		RecoverAt:       floatFlag(cmd, "thermal-recover", recoverAt),
		PassiveCooldown: floatFlag(cmd, "thermal-cooldown", passiveCooldown),
		Jitter:          floatFlag(cmd, "thermal-jitter", jitter),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.StartApp(ctx, cfg, logger)
}

func openSaves() (*save.Store, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sc := save.DefaultConfig()
	sc.Path = cfg.Save.Path
	sc.Logger = logger
	return save.Open(sc)
}

func runSavesList(cmd *cobra.Command, args []string) error {
	store, err := openSaves()
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Rooms(cmd.Context())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runSavesDelete(cmd *cobra.Command, args []string) error {
	store, err := openSaves()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range args {
		if err := store.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	}
	return nil
}
