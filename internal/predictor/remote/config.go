package remote

import (
	"time"

	"github.com/go-sod/seqwin/internal/httputil"
)

type Config struct {
	PredictURL     string        `envconfig:"SEQWIN_REMOTE_PREDICT_URL" toml:"predict_url"`
	FitURL         string        `envconfig:"SEQWIN_REMOTE_FIT_URL" toml:"fit_url"`
	BearerToken    string        `envconfig:"SEQWIN_REMOTE_BEARER_TOKEN" toml:"bearer_token"`
	Username       string        `envconfig:"SEQWIN_REMOTE_USERNAME" toml:"username"`
	Password       string        `envconfig:"SEQWIN_REMOTE_PASSWORD" toml:"password"`
	RequestTimeout time.Duration `envconfig:"SEQWIN_REMOTE_REQUEST_TIMEOUT" default:"30s" toml:"request_timeout"`
}

func (c Config) HTTPClientConfig() httputil.HTTPClientConfig {
	cfg := httputil.HTTPClientConfig{BearerToken: c.BearerToken}
	if c.Username != "" {
		cfg.BasicAuth = &httputil.BasicAuth{Username: c.Username, Password: c.Password}
	}
	return cfg
}
