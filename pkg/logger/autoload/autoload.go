// Package autoload initialises the global logger from LOG_* settings on import.
package autoload

import (
	configx "github.com/tanpawarit/driftdesk-agent/pkg/config"
	logx "github.com/tanpawarit/driftdesk-agent/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
