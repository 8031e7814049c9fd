// Package app wires every already-built component — transport,
// protocol engine, decoder, archive, alarms, wind tracker, network
// inventory, and command dispatcher — into one running process, and
// owns the top-level context/waitgroup/signal lifecycle. Grounded on
// the teacher's internal/app/app.go (construction-then-Run shape) and
// internal/managers/weatherstation.go (iterating collaborators into a
// running goroutine set).
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/alarm"
	"github.com/chrissnell/vantaged/internal/archive"
	"github.com/chrissnell/vantaged/internal/decode"
	"github.com/chrissnell/vantaged/internal/dispatcher"
	"github.com/chrissnell/vantaged/internal/eeprom"
	"github.com/chrissnell/vantaged/internal/network"
	"github.com/chrissnell/vantaged/internal/protocol"
	"github.com/chrissnell/vantaged/internal/transport"
	"github.com/chrissnell/vantaged/internal/weather"
	"github.com/chrissnell/vantaged/internal/wind"
	"github.com/chrissnell/vantaged/pkg/config"
)

// loopPairs is how many LOOP/LOOP2 pairs each Pipeline.Run session
// requests before returning to let the console worker service any
// pending console command — an "LPS 3 <2n>" session per spec.md §4.5,
// sized short enough that a queued console command never waits long.
const loopPairs = 10

// rainClickSizeInches is the console's fixed rain-gauge bucket size,
// the same constant the teacher's decoder derives from station type.
const rainClickSizeInches = 0.01

// pipelineRetryDelay paces retries after a failed LPS session so a
// persistently unreachable console doesn't spin the pipeline goroutine.
const pipelineRetryDelay = 2 * time.Second

// App bundles the whole running system: one serial-attached console,
// the pipeline that continuously drains its current-conditions loop,
// and the dispatcher that serves command/response traffic alongside
// it, matching spec.md §5's "protocol thread vs. two dispatcher
// workers" concurrency model.
type App struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	transport transport.Transport
	engine    *protocol.Engine
	decoder   *decode.Decoder
	store     *eeprom.Store

	archiveMgr *archive.Manager
	alarmMgr   *alarm.Manager
	storms     *alarm.StormArchive
	windTrk    *wind.Tracker
	inventory  *network.Inventory

	pipeline   *weather.Pipeline
	Dispatcher *dispatcher.Dispatcher

	// runCtx is set at the start of Run and read by syncArchive, which
	// is registered as a weather.ArchiveTrigger callback in New before
	// any context exists to capture.
	runCtx context.Context
}

// New constructs every collaborator named in cfg and wires them
// together, but does not yet talk to the console — that happens in
// Run. The serial port is opened first and closed again if a later
// step fails (bad archive path, malformed config), so such failures
// surface before any bytes are exchanged with the console.
func New(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	tr, err := transport.OpenSerial(transport.SerialConfig{
		Device:   cfg.Console.SerialDevice,
		BaudRate: cfg.Console.Baud,
	})
	if err != nil {
		return nil, err
	}

	engine := protocol.New(tr, logger.Named("protocol"))
	dec := decode.NewDecoder(rainClickSizeInches, func() {
		logger.Warn("archive record decoded with no rain bucket size configured")
	})
	store := eeprom.NewStore(engine)

	syncInterval, err := cfg.Archive.SyncInterval()
	if err != nil {
		tr.Close()
		return nil, err
	}

	archiveMgr, err := archive.Open(cfg.Archive.Path, syncInterval, dec, logger.Named("archive"))
	if err != nil {
		tr.Close()
		return nil, err
	}

	alarmMgr := alarm.New(cfg.Alarms.HistoryPath, logger.Named("alarm"))
	storms := alarm.NewStormArchive(cfg.Alarms.StormPath)
	windTrk := wind.New(windCheckpointPath(cfg), logger.Named("wind"))

	pipeline := weather.New(engine, dec, logger.Named("weather"))
	pipeline.Register(alarmMgr)
	pipeline.Register(windTrk)
	pipeline.Register(weather.NewStormDetector(storms.OnStormClosed))

	a := &App{
		cfg:        cfg,
		logger:     logger,
		transport:  tr,
		engine:     engine,
		decoder:    dec,
		store:      store,
		archiveMgr: archiveMgr,
		alarmMgr:   alarmMgr,
		storms:     storms,
		windTrk:    windTrk,
		pipeline:   pipeline,
	}
	pipeline.Register(weather.NewArchiveTrigger(a.syncArchive))
	a.runCtx = context.Background()

	d := dispatcher.New(logger.Named("dispatcher"))
	// Console handlers are registered in Run, once the EEPROM station
	// list has been read and ConsoleDeps.Inventory can be populated;
	// registering here would mean doing it twice.
	dispatcher.RegisterDataHandlers(d, dispatcher.DataDeps{
		Archive:      archiveMgr,
		AlarmMgr:     alarmMgr,
		StormArchive: storms,
	})
	a.Dispatcher = d

	return a, nil
}

func windCheckpointPath(cfg *config.Config) string {
	if cfg.Archive.BackupDir == "" {
		return ""
	}
	return cfg.Archive.BackupDir + "/wind-checkpoint.json"
}

// syncArchive is the weather.ArchiveTrigger callback. It reads runCtx
// rather than taking a context parameter because ArchiveTrigger's
// onRollover is a bare func(): it logs rather than propagating an
// error since a single failed sync is recovered by the next rollover
// or the periodic ticker in Run.
func (a *App) syncArchive() {
	if err := a.archiveMgr.SynchronizeWithConsole(a.runCtx, a.engine, a.decoder); err != nil {
		a.logger.Warnw("archive synchronization failed", "error", err)
		return
	}
	if err := a.archiveMgr.Backup(time.Now()); err != nil {
		a.logger.Warnw("archive backup failed", "error", err)
	}
}

// Run wakes the console, loads its EEPROM-resident station list and
// alarm thresholds, then drives the current-weather pipeline and
// command dispatcher concurrently until ctx is canceled or the
// process receives SIGINT/SIGTERM — the same construct-then-select
// shutdown shape as the teacher's App.Run.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.runCtx = ctx

	if err := a.engine.Wakeup(ctx); err != nil {
		return err
	}

	eeBytes, err := a.engine.GetEE(ctx)
	if err != nil {
		return err
	}
	a.alarmMgr.LoadThresholds(eeBytes[:])
	a.inventory = network.DecodeFullEEPROM(eeBytes[:])
	dispatcher.RegisterConsoleHandlers(a.Dispatcher, dispatcher.ConsoleDeps{
		Engine:    a.engine,
		Store:     a.store,
		Inventory: a.inventory,
	})

	var wg sync.WaitGroup

	a.Dispatcher.Start(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runPipeline(ctx)
	}()

	syncInterval, _ := a.cfg.Archive.SyncInterval()
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runPeriodicSync(ctx, syncInterval)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown")
	case <-ctx.Done():
		a.logger.Info("context canceled, shutting down")
	}

	cancel()
	a.Dispatcher.Wait()
	wg.Wait()
	return a.transport.Close()
}

// runPipeline keeps the console's LPS loop continuously fed, a short
// session at a time, so a pending console-bound command never waits
// longer than one session for the transport to free up.
func (a *App) runPipeline(ctx context.Context) {
	for ctx.Err() == nil {
		if err := a.pipeline.Run(ctx, loopPairs); err != nil {
			a.logger.Warnw("current-weather pipeline session ended with error", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pipelineRetryDelay):
			}
		}
	}
}

// runPeriodicSync triggers an archive sync on a fixed schedule, as a
// backstop alongside the rollover-triggered sync registered on the
// pipeline: a missed or corrupted NextRecord cursor still gets caught
// eventually. Each successful sync is followed by a backup and a
// verification pass over the archive file.
func (a *App) runPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.archiveMgr.SynchronizeWithConsole(ctx, a.engine, a.decoder); err != nil {
				a.logger.Warnw("periodic archive synchronization failed", "error", err)
				continue
			}
			if err := a.archiveMgr.Backup(time.Now()); err != nil {
				a.logger.Warnw("archive backup failed", "error", err)
			}
			if result, err := a.archiveMgr.VerifyCurrent(); err != nil {
				a.logger.Warnw("archive verification failed", "error", err)
			} else if !result.OK() {
				a.logger.Warnw("archive verification found inconsistencies",
					"outOfOrder", result.OutOfOrderErrors, "deltaWarnings", result.DeltaWarnings)
			}
		}
	}
}
