package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"kmllinks/internal/config"
	"kmllinks/internal/report"
	"kmllinks/internal/services"
	"kmllinks/internal/state"
	"kmllinks/internal/ui"
)

// Services are the collaborators a session loads through.
type Services struct {
	Loader   services.Loader
	Resolver services.Resolver
}

func NewServices(cfg config.Config, log logrus.FieldLogger) Services {
	if cfg.Demo {
		return Services{
			Loader:   services.NewMockLoader(),
			Resolver: services.MockResolver{URL: "demo://network-links"},
		}
	}
	client := &http.Client{Timeout: cfg.Timeout}
	fetcher := services.NewFetcher(client, cfg.CacheTTL, log)
	return Services{
		Loader: services.NewKMLLoader(fetcher, services.LoaderOptions{
			MaxDepth:    cfg.MaxDepth,
			Concurrency: cfg.Concurrency,
		}, log),
		Resolver: services.NewPortalClient(cfg.PortalURL, client, log),
	}
}

// Run starts the terminal UI and saves preferences on exit.
func Run(cfg config.Config, configErr error, log logrus.FieldLogger) error {
	svc := NewServices(cfg, log)
	session := state.NewSession(cfg)
	model := ui.NewModel(session, svc.Loader, svc.Resolver, cfg, log)
	if configErr != nil {
		model = model.WithStatus("Config warning: using defaults")
	}
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	if provider, ok := finalModel.(ui.ConfigProvider); ok {
		if err := config.SaveConfig(provider.ConfigSnapshot()); err != nil {
			log.WithError(err).Warn("config save failed")
		}
	}
	return nil
}

// Reporter loads the dataset without a UI, publishing each generation's
// report through a session.
type Reporter struct {
	cfg     config.Config
	svc     Services
	session *state.Session
	log     logrus.FieldLogger
}

func NewReporter(cfg config.Config, svc Services, log logrus.FieldLogger) *Reporter {
	return &Reporter{cfg: cfg, svc: svc, session: state.NewSession(cfg), log: log}
}

// LoadOnce resolves the source if needed, loads it and returns the report.
func (reporter *Reporter) LoadOnce(ctx context.Context) (report.Report, error) {
	source := reporter.cfg.URL
	generation := reporter.session.BeginLoad(source)
	loadCtx, cancel := context.WithTimeout(ctx, reporter.cfg.Timeout)
	defer cancel()

	if source == "" {
		resolved, err := reporter.svc.Resolver.ResolveItem(loadCtx, reporter.cfg.ItemID)
		if err != nil {
			reporter.session.FailLoad(generation, err)
			return report.Report{}, fmt.Errorf("resolve item %s: %w", reporter.cfg.ItemID, err)
		}
		source = resolved
		reporter.cfg.URL = resolved
	}
	result, err := reporter.svc.Loader.Load(loadCtx, services.LoadRequest{URL: source, Generation: generation})
	if err != nil {
		reporter.session.FailLoad(generation, err)
		return report.Report{}, err
	}
	for _, linkErr := range result.LinkErrors {
		reporter.log.WithField("generation", generation).Warn(linkErr)
	}
	if !reporter.session.CompleteLoad(generation, result.Tree) {
		return report.Report{}, fmt.Errorf("generation %d superseded", generation)
	}
	return reporter.session.Report(), nil
}

// Watch reloads whenever the shortest refresh interval elapses and calls emit
// with every new report until ctx is done. Load failures are logged and the
// previous report stays current.
func (reporter *Reporter) Watch(ctx context.Context, emit func(report.Report) error) error {
	for {
		rep, err := reporter.LoadOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, services.ErrItemNotFound) {
				return err
			}
			reporter.log.WithError(err).Error("load failed")
			rep = reporter.session.Report()
		} else if err := emit(rep); err != nil {
			return err
		}

		interval := rep.ShortestInterval()
		if interval <= 0 {
			interval = reporter.cfg.CacheTTL
		}
		if interval < reporter.cfg.MinRefresh {
			interval = reporter.cfg.MinRefresh
		}
		if interval <= 0 {
			interval = time.Minute
		}
		reporter.log.WithField("next", interval).Debug("waiting for refresh")
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
