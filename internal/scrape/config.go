package scrape

import (
	"encoding/json"
	"time"
)

type Config struct {
	Targets              Targets       `envconfig:"SEQWIN_SCRAPE_TARGETS" toml:"targets"`
	MaxConcurrentRequest int           `envconfig:"SEQWIN_SCRAPE_MAX_CONCURRENT_REQUEST" default:"8" toml:"max_concurrent_request"`
	Interval             time.Duration `envconfig:"SEQWIN_SCRAPE_INTERVAL" default:"1m" toml:"interval"`
	RequestTimeout       time.Duration `envconfig:"SEQWIN_SCRAPE_REQUEST_TIMEOUT" default:"10s" toml:"request_timeout"`
	BearerToken          string        `envconfig:"SEQWIN_SCRAPE_BEARER_TOKEN" toml:"bearer_token"`
}

func (c *Config) Enabled() bool {
	return len(c.Targets) > 0
}

type Targets []Target

// Decode reads targets from a JSON array, e.g.
// [{"url": "http://sensor:9000/rows", "dataset": "sensor"}].
func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

// Target is polled for a model.Batch. A non-empty Dataset overrides the one
// in the response.
type Target struct {
	URL     string `json:"url" toml:"url"`
	Dataset string `json:"dataset" toml:"dataset"`
}
