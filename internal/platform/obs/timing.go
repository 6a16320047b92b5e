package obs

import (
	"context"
	"time"
)

// Time logs the duration of op when the returned func is invoked.
// Typical use: defer obs.Time(ctx, "incidents.near")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			Ctx(ctx).Warn().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("op failed")
			return
		}
		Ctx(ctx).Debug().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("op done")
	}
}
