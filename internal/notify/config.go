package notify

import (
	"encoding/json"
	"time"

	"github.com/go-sod/seqwin/internal/httputil"
)

type Config struct {
	Targets              Targets       `envconfig:"SEQWIN_NOTIFY_TARGETS" toml:"targets"`
	Interval             time.Duration `envconfig:"SEQWIN_NOTIFY_INTERVAL" default:"5s" toml:"interval"`
	MaxConcurrentRequest int           `envconfig:"SEQWIN_NOTIFY_MAX_CONCURRENT_REQUEST" default:"8" toml:"max_concurrent_request"`
	RequestTimeout       time.Duration `envconfig:"SEQWIN_NOTIFY_REQUEST_TIMEOUT" default:"10s" toml:"request_timeout"`
}

func (c *Config) Enabled() bool {
	return len(c.Targets) > 0
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

// Target receives the summary of every report whose dataset is listed in
// Datasets, or of every report when Datasets is empty.
type Target struct {
	URL        string                    `json:"url" toml:"url"`
	Datasets   []string                  `json:"datasets" toml:"datasets"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig" toml:"http_config"`
}

func (t Target) accepts(dataset string) bool {
	if len(t.Datasets) == 0 {
		return true
	}
	for _, ds := range t.Datasets {
		if ds == dataset {
			return true
		}
	}
	return false
}
