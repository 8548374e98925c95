package fetcher

import (
	"github.com/rs/zerolog"
	"resty.dev/v3"
)

// NewHTTPClient creates the shared resty client for an authenticated JSON API.
// No retry policy is set; a failed attempt is final.
func NewHTTPClient(baseURL, token string, log zerolog.Logger) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log: log.With().Str("component", "resty").Logger()})

	if token != "" {
		client.SetHeader("Authorization", "Bearer "+token)
	}

	return client
}

// restyLogger routes resty's internal messages through zerolog
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.log.Debug().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.log.Trace().Msgf(format, v...) }
