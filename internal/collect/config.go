package collect

import (
	"time"
)

type Config struct {
	RequestTimeout  time.Duration `envconfig:"SEQWIN_COLLECT_REQUEST_TIMEOUT" default:"60s" toml:"request_timeout"`
	MaxDataItemsLen int           `envconfig:"SEQWIN_COLLECT_MAX_DATA_ITEMS_LEN" default:"10000" toml:"max_data_items_len"`
}
