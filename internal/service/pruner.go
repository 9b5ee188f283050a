package service

import (
	"context"
	"log/slog"
	"time"

	"postblog/internal/middleware"
	"postblog/internal/observability"
	"postblog/internal/repository"
)

// RevocationPruner periodically deletes revocation entries whose token has expired.
type RevocationPruner struct {
	repo     repository.RevocationRepository
	interval time.Duration
	now      func() time.Time
}

func NewRevocationPruner(repo repository.RevocationRepository, interval time.Duration) *RevocationPruner {
	return &RevocationPruner{repo: repo, interval: interval, now: time.Now}
}

// PruneOnce removes expired entries and returns how many were deleted.
func (p *RevocationPruner) PruneOnce(ctx context.Context) (int64, error) {
	removed, err := p.repo.PruneExpired(ctx, p.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		observability.RevocationsPruned.Add(float64(removed))
	}
	return removed, nil
}

// Run prunes on every tick until ctx is cancelled. A non-positive interval disables it.
func (p *RevocationPruner) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := p.PruneOnce(ctx)
			if err != nil {
				middleware.Logger.ErrorContext(ctx, "revocation prune failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				middleware.Logger.InfoContext(ctx, "pruned expired revocations", slog.Int64("removed", removed))
			}
		}
	}
}
