package config

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// keeps errors in the structured log only.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}
