package main

import (
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/dailymed/internal/acquire"
	"github.com/pdiddy/dailymed/internal/httputil"
	"github.com/pdiddy/dailymed/pkg/types"
)

const (
	defaultSaveDir   = "dailymed_xmls"
	defaultDelay     = 500 * time.Millisecond
	defaultUserAgent = "dailymed/0.1"
)

func init() {
	viper.SetDefault("save_dir", defaultSaveDir)
	viper.SetDefault("limit", acquire.DefaultLimitPerDrug)
	viper.SetDefault("delay", defaultDelay)
	viper.SetDefault("timeout", acquire.DefaultTimeout)
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("index_url", types.DefaultIndexURL)
	viper.SetDefault("document_url", types.DefaultDocumentURL)

	def := types.DefaultRetryConfig()
	viper.SetDefault("retry.total", def.Total)
	viper.SetDefault("retry.backoff_factor", def.BackoffFactor)
	viper.SetDefault("retry.status_forcelist", def.StatusForcelist)
	viper.SetDefault("retry.allowed_methods", def.AllowedMethods)
}

// downloadConfig assembles the download settings from flags, environment,
// config file and defaults, in that order of precedence.
func downloadConfig() types.DownloadConfig {
	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		IndexURL:    viper.GetString("index_url"),
		DocumentURL: viper.GetString("document_url"),
		SaveDir:     viper.GetString("save_dir"),
		Delay:       viper.GetDuration("delay"),
	}
}

// retryConfig reads the retry policy. Values missing from the config fall
// back to DefaultRetryConfig.
func retryConfig() types.RetryConfig {
	cfg := types.RetryConfig{
		Total:           viper.GetInt("retry.total"),
		BackoffFactor:   viper.GetDuration("retry.backoff_factor"),
		StatusForcelist: viper.GetIntSlice("retry.status_forcelist"),
		AllowedMethods:  viper.GetStringSlice("retry.allowed_methods"),
	}
	def := types.DefaultRetryConfig()
	if len(cfg.StatusForcelist) == 0 {
		cfg.StatusForcelist = def.StatusForcelist
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = def.AllowedMethods
	}
	return cfg
}

// newClient builds the process-wide retrying client. The index request
// uses it as is; the downloader derives a timeout-bound copy sharing its
// connection pool.
func newClient() *httputil.Client {
	return httputil.NewClient(&http.Client{}, retryConfig(), logger)
}
