package etl

import "time"

type Config struct {
	SourceURL   string        `split_words:"true" default:"http://127.0.0.1:8000"`
	DatabaseURL string        `split_words:"true"`
	Timeout     time.Duration `default:"10s"`
}
