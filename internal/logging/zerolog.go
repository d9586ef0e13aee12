package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// ZerologAdapter adapts a github.com/rs/zerolog.Logger to types.Logger.
//
// kv pairs are applied as zerolog fields in order; an odd trailing key with
// no value is logged under the key "extra".
type ZerologAdapter struct {
	log zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog.Logger.
func NewZerologAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log}
}

// NewDefaultLogger builds a ZerologAdapter writing human-readable output to
// stderr, suitable as an out-of-the-box production logger.
func NewDefaultLogger() *ZerologAdapter {
	return NewZerologAdapter(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger())
}

func withFields(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	if len(kv)%2 == 1 {
		e = e.Interface("extra", kv[len(kv)-1])
	}
	return e
}

func (a *ZerologAdapter) Debug(msg string, kv ...any) { withFields(a.log.Debug(), kv).Msg(msg) }
func (a *ZerologAdapter) Info(msg string, kv ...any)  { withFields(a.log.Info(), kv).Msg(msg) }
func (a *ZerologAdapter) Warn(msg string, kv ...any)  { withFields(a.log.Warn(), kv).Msg(msg) }
func (a *ZerologAdapter) Error(msg string, kv ...any) { withFields(a.log.Error(), kv).Msg(msg) }
func (a *ZerologAdapter) Fatal(msg string, kv ...any) { withFields(a.log.Fatal(), kv).Msg(msg) }
