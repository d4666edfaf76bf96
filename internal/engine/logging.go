package engine

import (
	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	entry := e.log.WithComponent("engine")
	if e.cfg != nil && e.cfg.DCA.Pair != "" {
		entry = entry.WithField("symbol", e.cfg.DCA.Pair)
	}
	return entry
}
