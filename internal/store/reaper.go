package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
)

// Reap stops and removes every table idle for longer than idle as of now.
// Idleness is checked again at removal time, so a table used in the meantime
// survives. It returns the removed keys.
func Reap(ctx context.Context, s Store, idle time.Duration, now time.Time) ([]string, error) {
	keys, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	isIdle := func(t *table.Table) bool { return now.Sub(t.LastSeen()) > idle }
	var reaped []string
	for _, k := range keys {
		t, ok, err := s.DeleteIf(ctx, k, isIdle)
		if err != nil {
			return reaped, err
		}
		if !ok {
			continue
		}
		t.Stop()
		reaped = append(reaped, k)
	}
	return reaped, nil
}

// RunReaper calls Reap every interval until ctx ends.
func RunReaper(ctx context.Context, s Store, idle, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			reaped, err := Reap(ctx, s, idle, now)
			if err != nil {
				log.Warn().Err(err).Msg("reap tables")
				continue
			}
			if len(reaped) > 0 {
				log.Info().Int("count", len(reaped)).Msg("reaped idle tables")
			}
		}
	}
}

// StopAll stops every stored table. Used at shutdown.
func StopAll(ctx context.Context, s Store) {
	keys, _ := s.List(ctx)
	for _, k := range keys {
		if t, err := s.Get(ctx, k); err == nil {
			t.Stop()
		}
	}
}
