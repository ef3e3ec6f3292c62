package vector

import (
	"strings"
	"time"
)

const (
	DefaultCollection = "driftdesk_products"
	DefaultDim        = 128
)

type Config struct {
	URL        string        `envconfig:"URL" split_words:"true"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	Collection string        `envconfig:"COLLECTION" split_words:"true" default:"driftdesk_products"`
	VectorDim  int           `envconfig:"VECTOR_DIM" split_words:"true" default:"128"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

func (c Config) withDefaults() Config {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Collection = strings.TrimSpace(c.Collection)
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.VectorDim <= 0 {
		c.VectorDim = DefaultDim
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}
