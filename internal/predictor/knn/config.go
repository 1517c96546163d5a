package knn

type Config struct {
	K int `envconfig:"SEQWIN_KNN_K" default:"5" toml:"k"`
}
