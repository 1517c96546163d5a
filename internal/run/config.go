package run

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"SEQWIN_RUN_REQUEST_TIMEOUT" default:"5m" toml:"request_timeout"`
	// Target is used when a run request names none.
	Target string `envconfig:"SEQWIN_TARGET" toml:"target"`
}
