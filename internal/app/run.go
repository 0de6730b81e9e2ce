package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"fmp-archiver/internal/alerting"
	"fmp-archiver/internal/fetch"
	"fmp-archiver/internal/scheduler"
)

// Run executes the long-running refresh daemon: the configured tickers
// are re-fetched every interval and failures are pushed to the
// configured alert channel.
func (a *App) Run(ctx context.Context, opts FetchOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tickers, err := a.resolveTickers(opts)
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}

	orch := fetch.New(a.newClient(), a.newLimiter(), st, fetch.Options{
		MaxRetries:      a.Config.Fetch.MaxRetries,
		RetryInitial:    a.Config.Fetch.RetryInitial,
		RetryMax:        a.Config.Fetch.RetryMax,
		IntradayMaxSpan: a.Config.Fetch.IntradayMaxSpan,
	}, a.Logger)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Daemon.Interval,
		AlignToStart: a.Config.Daemon.AlignToSlot,
		StartupDelay: a.Config.Daemon.StartupDelay,
	}, a.Logger)

	notifier := a.newNotifier()

	a.Logger.Info().
		Int("tickers", len(tickers)).
		Dur("interval", a.Config.Daemon.Interval).
		Msg("starting refresh daemon")

	err = sched.Run(ctx, func(ctx context.Context, slot time.Time) error {
		requests, err := a.buildRequests(tickers, opts)
		if err != nil {
			return err
		}

		report := orch.Run(ctx, requests)
		failed := report.Failed()
		if len(failed) == 0 {
			return nil
		}

		if notifier != nil {
			note := alerting.Notification{At: slot, Total: len(report.Results)}
			for _, res := range failed {
				note.Failures = append(note.Failures, alerting.Failure{
					Series: res.Key.String(),
					Status: string(res.Status),
					Reason: fmt.Sprint(res.Err),
				})
			}
			if err := notifier.Notify(ctx, note); err != nil {
				a.Logger.Error().Err(err).Msg("failure notification not delivered")
			}
		}
		return fmt.Errorf("%d of %d series failed", len(failed), len(report.Results))
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("daemon terminated with error")
		return err
	}

	a.Logger.Info().Msg("refresh daemon stopped")
	return nil
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}
