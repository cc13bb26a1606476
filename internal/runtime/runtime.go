// Package runtime wires the service together: telemetry, bus,
// template store, pipeline and HTTP API, with ordered shutdown.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/assemble"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/batch"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/bus"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/httpapi"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/natsserver"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/synth"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/templatestore"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/translate"
)

type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	tel   *telemetry
	ready atomic.Bool
	wg    sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start builds the object graph and blocks until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tel, err := initTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tel = tel

	var embedded *natsserver.EmbeddedServer
	var busClient *bus.Client
	if r.cfg.Bus.Enabled {
		embedded, err = natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded NATS server: %w", err)
		}
		busClient, err = bus.Connect(r.cfg.Bus, r.logger)
		if err != nil {
			embedded.Shutdown()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}

	store, err := templatestore.Open(ctx, r.cfg.TemplateStore, r.logger)
	if err != nil {
		busClient.Close()
		embedded.Shutdown()
		return fmt.Errorf("failed to open template store: %w", err)
	}

	translator, err := translate.FromConfig(r.cfg.Translator)
	if err != nil {
		_ = store.Close()
		busClient.Close()
		embedded.Shutdown()
		return fmt.Errorf("failed to build translator: %w", err)
	}
	synthesizer, err := synth.FromConfig(r.cfg.Speech)
	if err != nil {
		_ = store.Close()
		busClient.Close()
		embedded.Shutdown()
		return fmt.Errorf("failed to build synthesizer: %w", err)
	}

	resolver := assemble.NewResolver(r.cfg.Speech, r.cfg.Translator.TargetLanguage, translator, synthesizer, store, r.logger)
	assembler := assemble.NewAssembler(resolver, r.cfg.Speech.SampleRate, r.cfg.Speech.Channels, r.logger)
	sink := batch.DirSink{Dir: r.cfg.Batch.OutputDir}
	orchestrator := batch.NewOrchestrator(r.cfg.Batch, assembler, sink, busClient, r.logger)

	api := httpapi.NewServer(r.cfg, resolver, orchestrator, tel.metrics, r.ready.Load, r.logger)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := api.ListenAndServe(); err != nil {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("environment", r.cfg.Environment),
		slog.String("translator_mode", r.cfg.Translator.Mode),
		slog.String("speech_mode", r.cfg.Speech.Mode))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := api.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if err := store.Close(); err != nil {
		r.logger.Error("template store close error", slog.String("error", err.Error()))
	}
	busClient.Close()
	embedded.Shutdown()

	if err := r.tel.shutdown(shutdownCtx); err != nil {
		r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
	}

	return nil
}
