package app

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"fmp-archiver/internal/config"
)

// ShowConfig prints the effective configuration with secrets masked.
func (a *App) ShowConfig() error {
	c := a.Config
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	rows := [][2]string{
		{"api.key", config.MaskSecret(c.API.Key)},
		{"api.base_url", c.API.BaseURL},
		{"api.request_timeout", c.API.RequestTimeout.String()},
		{"storage.data_dir", c.Storage.DataDir},
		{"rate_limit.requests_per_window", fmt.Sprintf("%d", c.RateLimit.RequestsPerWindow)},
		{"rate_limit.window", c.RateLimit.Window.String()},
		{"rate_limit.requests_per_day", fmt.Sprintf("%d", c.RateLimit.RequestsPerDay)},
		{"rate_limit.penalty_base", c.RateLimit.PenaltyBase.String()},
		{"rate_limit.penalty_max", c.RateLimit.PenaltyMax.String()},
		{"fetch.tickers", strings.Join(c.Fetch.Tickers, ",")},
		{"fetch.period", c.Fetch.Period},
		{"fetch.years", fmt.Sprintf("%d", c.Fetch.Years)},
		{"fetch.intraday_interval", c.Fetch.IntradayInterval},
		{"fetch.intraday_max_span", c.Fetch.IntradayMaxSpan.String()},
		{"fetch.max_retries", fmt.Sprintf("%d", c.Fetch.MaxRetries)},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"export.max_data_points", fmt.Sprintf("%d", c.Export.MaxDataPoints)},
	}
	for _, row := range rows {
		fmt.Fprintf(writer, "%s\t%s\n", row[0], row[1])
	}
	return writer.Flush()
}

// SetConfig persists one key=value pair to the config file and echoes
// the stored value, masked when it is a credential.
func (a *App) SetConfig(path, key, value string) error {
	if err := config.Set(path, key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = config.MaskSecret(value)
	}
	fmt.Fprintf(os.Stdout, "%s = %s\n", key, shown)
	return nil
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "key") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}
