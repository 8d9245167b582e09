package probe

import "github.com/rs/zerolog"

var zlog = zerolog.Nop()

// SetLogger sets the logger used for probe progress.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "probe").Logger() }
