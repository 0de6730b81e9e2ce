package app

import (
	"time"

	"github.com/rs/zerolog"

	"fmp-archiver/internal/config"
	"fmp-archiver/internal/fetch"
	"fmp-archiver/internal/fmp"
	"fmp-archiver/internal/loader"
	"fmp-archiver/internal/ratelimit"
	"fmp-archiver/internal/store"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *fmp.Client {
	return fmp.NewClient(fmp.Options{
		BaseURL:   a.Config.API.BaseURL,
		APIKey:    a.Config.API.Key,
		Timeout:   a.Config.API.RequestTimeout,
		UserAgent: a.Config.API.UserAgent,
	}, a.Logger)
}

func (a *App) newLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Options{
		CallsPerWindow: a.Config.RateLimit.RequestsPerWindow,
		Window:         a.Config.RateLimit.Window,
		CallsPerDay:    a.Config.RateLimit.RequestsPerDay,
		PenaltyBase:    a.Config.RateLimit.PenaltyBase,
		PenaltyMax:     a.Config.RateLimit.PenaltyMax,
	}, a.Logger)
}

func (a *App) openStore() (*store.Store, error) {
	return store.New(a.Config.Storage.DataDir, a.Logger)
}

func (a *App) newLoader() (*loader.Loader, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return loader.New(st, a.Logger), nil
}

// FetchOptions hold parameters for the fetch command.
type FetchOptions struct {
	Tickers          []string
	TickerFile       string
	DataTypes        []string
	From             *time.Time
	To               *time.Time
	Crypto           bool
	Period           string
	Years            int
	IntradayInterval string
}

// LoadOptions configure the load command.
type LoadOptions struct {
	Summary     bool
	ListTickers bool
	Ticker      string
	DataType    string
	Interval    string
	From        *time.Time
	To          *time.Time
	CSVPath     string
}

// ExportOptions hold parameters for exporting a stored series.
type ExportOptions struct {
	Ticker    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

var _ fetch.Provider = (*fmp.Client)(nil)
