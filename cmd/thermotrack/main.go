package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/thermotrack/internal/config"
	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/history"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"codeberg.org/mutker/thermotrack/internal/metrics"
	"codeberg.org/mutker/thermotrack/internal/pid"
	"codeberg.org/mutker/thermotrack/internal/sampler"
	"codeberg.org/mutker/thermotrack/internal/sensor"
	"codeberg.org/mutker/thermotrack/internal/server"
	"codeberg.org/mutker/thermotrack/internal/tracker"
)

// Admitted samples are only logged, so a small buffer is enough.
const notifyBuffer = 16

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.EffectiveLogLevel(), logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().
		Str("config_file", cfg.ConfigFile).
		Str("mode", cfg.Mode).
		Dur("interval", cfg.Interval).
		Msg("Config loaded")

	if err := run(cfg); err != nil {
		logError(err, "Exiting with error")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func run(cfg *config.Config) error {
	pidFile := pid.New(cfg.PIDFile)
	if err := pidFile.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logError(err, "Failed to remove PID file")
		}
	}()

	collector, err := metrics.NewService(cfg.MetricsConfig())
	if err != nil {
		return err
	}

	sensorCfg := cfg.SensorConfig()
	reader, err := sensor.Open(sensorCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logError(err, "Failed to close sensor")
		}
	}()
	logger.Info().Str("sensor", fmt.Sprint(reader)).Msg("Sensor opened")

	notify := make(chan history.Sample, notifyBuffer)
	tr, err := tracker.New(reader, cfg.TrackerConfig(),
		tracker.WithLogger(logger.New("tracker")),
		tracker.WithMetrics(collector),
		tracker.WithNotify(notify),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)
	go logAdmissions(ctx, notify, sensorCfg.Scale)

	var source server.Source = tr
	switch cfg.Mode {
	case config.ModeSmooth:
		smooth, err := startSmooth(ctx, cfg, reader, tr, collector)
		if err != nil {
			return err
		}
		defer smooth.Stop()
		source = smoothSource{Tracker: tr, smooth: smooth}
	default:
		tr.Start()
		defer tr.Stop()
	}

	srv, err := server.New(source, server.Config{Addr: cfg.Listen, Scale: sensorCfg.Scale},
		server.WithLogger(logger.New("server")),
		server.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}

// startSmooth runs a SmoothSampler and records every sample it emits.
func startSmooth(
	ctx context.Context, cfg *config.Config, reader sensor.Reader, tr *tracker.Tracker, collector metrics.Collector,
) (*sampler.SmoothSampler, error) {
	samples := make(chan history.Sample)
	smooth, err := sampler.NewSmooth(reader, cfg.Interval, cfg.ReadsPerSample, samples,
		sampler.WithLogger(logger.New("sampler")),
		sampler.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-samples:
				tr.Record(s)
			}
		}
	}()
	smooth.Run()

	return smooth, nil
}

// smoothSource reports the smooth sampler's state as the sampling state.
type smoothSource struct {
	*tracker.Tracker
	smooth *sampler.SmoothSampler
}

func (s smoothSource) IsRunning() bool {
	return s.smooth.IsRunning()
}

func logAdmissions(ctx context.Context, notify <-chan history.Sample, scale sensor.Scale) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-notify:
			logger.Info().
				Str("temperature", scale.Format(s.Value())).
				Time("time", s.Time()).
				Msg("Sample admitted")
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logError(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.ErrorWithCode(coded).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}
