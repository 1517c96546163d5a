package observation

import "time"

type Config struct {
	FlushSize      int           `envconfig:"SEQWIN_DB_FLUSH_SIZE" default:"100" toml:"flush_size"`
	FlushTime      time.Duration `envconfig:"SEQWIN_DB_FLUSH_TIME" default:"1s" toml:"flush_time"`
	MaxItemsStored int           `envconfig:"SEQWIN_MAX_ITEMS_STORED" default:"0" toml:"max_items_stored"`
	MaxStorageTime time.Duration `envconfig:"SEQWIN_MAX_STORAGE_TIME" default:"0" toml:"max_storage_time"`
	RebuildDBTime  time.Duration `envconfig:"SEQWIN_REBUILD_DB_TIME" default:"1m" toml:"rebuild_db_time"`
}
