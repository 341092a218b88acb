package types

import (
	"net/http"
	"time"
)

// HTTPConfig holds shared HTTP settings used by every network request.
type HTTPConfig struct {
	// Timeout bounds a single document request. The index request is not
	// bounded by it.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dailymed/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig is the retry policy applied by the HTTP client. It is fixed
// for the lifetime of the process.
type RetryConfig struct {
	// Total is the number of retries after the first attempt.
	Total int `json:"total" yaml:"total" mapstructure:"total"`

	// BackoffFactor scales the wait between attempts:
	// BackoffFactor * 2^(retry-1).
	BackoffFactor time.Duration `json:"backoff_factor" yaml:"backoff_factor" mapstructure:"backoff_factor"`

	// StatusForcelist lists the response codes treated as transient.
	StatusForcelist []int `json:"status_forcelist" yaml:"status_forcelist" mapstructure:"status_forcelist"`

	// AllowedMethods lists the HTTP methods eligible for retry.
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" mapstructure:"allowed_methods"`
}

// DefaultRetryConfig returns the policy used when nothing is configured:
// three retries, 0.3 s backoff factor, retry on 500/502/503/504 for
// idempotent methods only.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Total:         3,
		BackoffFactor: 300 * time.Millisecond,
		StatusForcelist: []int{
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodOptions},
	}
}

// Default DailyMed endpoints.
const (
	DefaultIndexURL    = "https://dailymed.nlm.nih.gov/dailymed/services/v2/spls.json"
	DefaultDocumentURL = "https://dailymed.nlm.nih.gov/dailymed/downloads/labelxml.cfm?setid={setid}"
)

// DownloadConfig holds settings for index retrieval and document download.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// IndexURL is the JSON endpoint listing every SPL record.
	IndexURL string `json:"index_url" yaml:"index_url" mapstructure:"index_url"`

	// DocumentURL is the XML download URL. The literal "{setid}" is
	// replaced with the record identifier.
	DocumentURL string `json:"document_url" yaml:"document_url" mapstructure:"document_url"`

	// SaveDir is the directory receiving <setid>.xml files.
	SaveDir string `json:"save_dir" yaml:"save_dir" mapstructure:"save_dir"`

	// Delay is the pause after every attempted download (default 500ms).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}
