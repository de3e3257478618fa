package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"UnitCoinMiner/internal/game"
	"UnitCoinMiner/internal/metrics"
	"UnitCoinMiner/internal/save"
)

const shutdownTimeout = 5 * time.Second

// App wires the hub, the save store, the metrics registry and the HTTP
// server together and runs their loops.
type App struct {
	cfg     AppConfig
	log     *slog.Logger
	hub     *game.Hub
	saves   *save.Store
	metrics *metrics.Registry
	srv     *Server
}

func NewApp(cfg AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hub := game.NewHub(game.RoomConfig{
		Thermal: cfg.Thermal,
		Seed:    cfg.Simulation.Seed,
		Logger:  logger,
	})

	var saves *save.Store
	if cfg.Save.Enabled {
		sc := save.DefaultConfig()
		sc.Path = cfg.Save.Path
		sc.InMemory = cfg.Save.InMemory
		sc.Logger = logger
		var err error
		saves, err = save.Open(sc)
		if err != nil {
			return nil, fmt.Errorf("open save store: %w", err)
		}
	}

	reg := metrics.NewRegistry()
	return &App{
		cfg:     cfg,
		log:     logger,
		hub:     hub,
		saves:   saves,
		metrics: reg,
		srv:     NewServer(cfg, hub, saves, reg, logger),
	}, nil
}

// StartApp builds an App from cfg and runs it until ctx is cancelled.
func StartApp(ctx context.Context, cfg AppConfig, logger *slog.Logger) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// Run serves until ctx is cancelled or a loop fails, then saves every dirty
// room and closes the store.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := a.restoreRooms(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	httpSrv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		a.log.Info("starting web server",
			"addr", a.cfg.Addr,
			"ambient", a.cfg.Thermal.Ambient,
			"overheatAt", a.cfg.Thermal.OverheatAt,
			"recoverAt", a.cfg.Thermal.RecoverAt)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	g.Go(func() error {
		a.every(gctx, a.cfg.Simulation.TickInterval, a.tickAll)
		return nil
	})
	g.Go(func() error {
		a.every(gctx, a.cfg.Simulation.MarketInterval, a.stepMarkets)
		return nil
	})
	if a.saves != nil {
		g.Go(func() error {
			a.every(gctx, a.cfg.Save.Interval, func() { a.saveDirty(gctx) })
			return nil
		})
		if a.cfg.Save.GCInterval > 0 {
			g.Go(func() error {
				a.every(gctx, a.cfg.Save.GCInterval, a.saves.RunGC)
				return nil
			})
		}
	}
	return g.Wait()
}

// every calls fn on each tick of a d-period ticker until ctx is done.
func (a *App) every(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (a *App) tickAll() {
	for _, room := range a.hub.List() {
		start := time.Now()
		rep := room.Tick()
		a.metrics.RecordTick(room.ID, rep.Production, len(rep.Overheated), time.Since(start))
	}
}

func (a *App) stepMarkets() {
	for _, room := range a.hub.List() {
		a.metrics.SetMarketPrice(room.ID, room.StepMarket())
	}
}

func (a *App) saveDirty(ctx context.Context) {
	for _, room := range a.hub.List() {
		if !room.TakeDirty() {
			continue
		}
		start := time.Now()
		err := a.saves.Save(ctx, room.ID, room.Snapshot())
		a.metrics.RecordSave(err, time.Since(start))
		if err != nil {
			a.log.Warn("autosave failed", "room", room.ID, "err", err)
		}
	}
}

// restoreRooms brings every saved room back into the hub so they keep
// ticking before anyone reconnects.
func (a *App) restoreRooms(ctx context.Context) error {
	if a.saves == nil {
		return nil
	}
	ids, err := a.saves.Rooms(ctx)
	if err != nil {
		return fmt.Errorf("list saved rooms: %w", err)
	}
	for _, id := range ids {
		if _, err := a.srv.openRoom(ctx, id); err != nil {
			a.log.Warn("skipping saved room", "room", id, "err", err)
		}
	}
	if len(ids) > 0 {
		a.log.Info("saved rooms loaded", "count", len(ids))
	}
	return nil
}

func (a *App) close() {
	if a.saves == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.saveDirty(ctx)
	if err := a.saves.Close(); err != nil {
		a.log.Warn("close save store", "err", err)
	}
}
