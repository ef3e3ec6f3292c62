package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/support.txt
	supportRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router  string
	Sales   string
	Support string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:  strings.TrimSpace(routerRaw),
		Sales:   strings.TrimSpace(salesRaw),
		Support: strings.TrimSpace(supportRaw),
	}
}
