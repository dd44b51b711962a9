package autodecode

import (
	"log/slog"
	"sync/atomic"
)

var streamIDs atomic.Uint64

func noopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// streamLogger tags every record of one Stream so interleaved streams can be
// told apart.
func streamLogger(base *slog.Logger, o *Options) *slog.Logger {
	return base.With(
		slog.Uint64("stream", streamIDs.Add(1)),
		slog.String("default_encoding", o.DefaultEncoding),
		slog.Int("consume_size", o.ConsumeSize),
	)
}
