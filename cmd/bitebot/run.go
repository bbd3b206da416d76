package main

import (
	"BiteBot/internal/adapter/control"
	"BiteBot/internal/adapter/mqtt"
	"BiteBot/internal/app/discovery"
	"BiteBot/internal/app/engine"
	"BiteBot/internal/config"
	"BiteBot/internal/service/audio"
	"BiteBot/internal/service/audio/wasapi"
	"BiteBot/internal/service/detector"
	"BiteBot/internal/service/input"
	"BiteBot/internal/service/journal"
	"BiteBot/internal/service/metrics"
	"BiteBot/internal/service/notify"
	"BiteBot/internal/service/procinfo"
	"BiteBot/internal/service/registry"
	"BiteBot/internal/service/window"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func runBot(parent context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		return err
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("Starting app",
		"version", version,
		"DebugMode", cfg.DebugMode,
		"injectMethod", cfg.Inject.Method,
		"injectAsync", cfg.Inject.Async,
		"key", cfg.Inject.Key,
	)

	src, err := wasapi.Open(sugar)
	if err != nil {
		sugar.Errorw("Audio source unavailable", "error", err)
		return fmt.Errorf("%w: %w", audio.ErrSourceUnavailable, err)
	}
	defer src.Close()

	key, err := input.ParseKey(cfg.Inject.Key)
	if err != nil {
		return err
	}
	sender, err := input.NewSender(cfg.Inject.Method, key)
	if err != nil {
		return err
	}
	seq := input.NewSequencer(sender, input.Timing{
		PreDelayMin: cfg.Inject.PreDelayMin,
		PreDelayMax: cfg.Inject.PreDelayMax,
		Hold:        cfg.Inject.Hold,
	}, nil, sugar)

	reg := registry.New()
	disc := discovery.New(src, window.NewResolver(), procinfo.System{}, reg, discovery.Options{
		SessionMatch: cfg.Discovery.SessionMatch,
		ProcessMatch: cfg.Discovery.ProcessMatch,
		Interval:     cfg.Discovery.Interval,
		NegativeTTL:  cfg.Discovery.NegativeTTL,
	}, sugar)
	if _, err := disc.Scan(ctx); err != nil {
		sugar.Errorw("Discovery failed", "error", err)
		return err
	}
	if reg.Len() == 0 {
		sugar.Warnw("Окна игры не найдены", "sessionMatch", cfg.Discovery.SessionMatch, "processMatch", cfg.Discovery.ProcessMatch)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(promReg, reg.Len)
	if err != nil {
		return err
	}
	hub := control.NewHub(sugar)
	recent := journal.New[engine.Event](200)

	observers := engine.Observers{metricsObserver(m), hub, engine.ObserverFunc(recent.Add)}
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.Connect(ctx, cfg.MQTT, sugar)
		if err != nil {
			// MQTT необязателен, продолжаем без него
			sugar.Warnw("MQTT publisher disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			defer pub.Close()
			observers = append(observers, pub)
		}
	}

	det := detector.New(detector.Policy{
		Threshold: cfg.Engine.BiteThreshold,
		DelayMin:  cfg.Engine.ReactDelayMin,
		DelayMax:  cfg.Engine.ReactDelayMax,
	}, nil)
	eng := engine.New(reg, audio.NewSampler(src), det, seq, observers, engine.Policy{
		PollInterval:    cfg.Engine.PollInterval,
		ReelCooldown:    cfg.Engine.ReelCooldown,
		NoBiteTimeout:   cfg.Engine.NoBiteTimeout,
		CastSuppression: cfg.Engine.CastSuppression,
		Async:           cfg.Inject.Async,
		Debug:           cfg.DebugMode,
		DebugLevelFloor: cfg.DebugLevelFloor,
	}, sugar)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	if cfg.Discovery.Interval > 0 {
		g.Go(func() error { return disc.Run(gctx) })
	}
	if cfg.Control.Enabled {
		srv := control.New(cfg.Control, control.Deps{
			Registry: reg,
			Status:   eng,
			Hub:      hub,
			Events:   recent,
			Metrics:  m.Handler(),
		}, sugar)
		if err := srv.Start(gctx); err != nil {
			sugar.Errorw("Control API failed to start", "addr", cfg.Control.BindAddr, "error", err)
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop(context.WithoutCancel(gctx))
		})
	}

	err = g.Wait()
	flushStats(sugar, reg)

	if err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Engine stopped", "error", err)
		alertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = notify.NewAlert(sugar, cfg.AlertSoundPath, nil).Play(alertCtx)
		return err
	}
	sugar.Infow("Stopped")
	return nil
}

// metricsObserver переводит события движка в счётчики Prometheus.
func metricsObserver(m *metrics.Metrics) engine.Observer {
	return engine.ObserverFunc(func(ev engine.Event) {
		if ev.Kind == engine.EventStopped {
			m.RecordStop()
			return
		}
		m.RecordAction(string(ev.Kind), ev.TargetID, ev.Duration)
	})
}

// flushStats пишет итоговую статистику каждой цели перед выходом.
func flushStats(logger *zap.SugaredLogger, reg *registry.Registry) {
	for _, e := range reg.List() {
		logger.Infow("Final stats",
			"pid", e.Target.ID,
			"name", e.Target.DisplayName,
			"casts", e.Stats.CastCount,
			"reacts", e.Stats.ReactCount,
			"avgReactionSec", e.Stats.Mean(),
		)
	}
}
