package badger_local_kv

import (
	"strings"

	"github.com/dgraph-io/badger"
	"github.com/rs/zerolog"
)

var _ badger.Logger = badgerLogger{}

// Routes badger internal logs to zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (bl badgerLogger) Errorf(f string, v ...any) {
	bl.l.Error().Msgf(strings.TrimSuffix(f, "\n"), v...)
}

func (bl badgerLogger) Warningf(f string, v ...any) {
	bl.l.Warn().Msgf(strings.TrimSuffix(f, "\n"), v...)
}

func (bl badgerLogger) Infof(f string, v ...any) {
	bl.l.Debug().Msgf(strings.TrimSuffix(f, "\n"), v...)
}

func (bl badgerLogger) Debugf(f string, v ...any) {
	bl.l.Trace().Msgf(strings.TrimSuffix(f, "\n"), v...)
}
