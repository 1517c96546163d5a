package ridge

type Config struct {
	Lambda float64 `envconfig:"SEQWIN_RIDGE_LAMBDA" default:"1" toml:"lambda"`
}
