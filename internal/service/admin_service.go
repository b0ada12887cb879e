package service

import (
	"context"
	"log/slog"

	"github.com/evenup-dev/evenup/internal/storage"
)

// topSpendersLimit caps the top-spenders list in the system overview.
const topSpendersLimit = 10

// AdminService serves operational insight into the whole installation.
// Access control (who counts as an admin) is enforced by the HTTP layer.
type AdminService struct {
	store storage.Store
}

// NewAdminService creates a new AdminService with the given storage backend.
func NewAdminService(store storage.Store) *AdminService {
	return &AdminService{store: store}
}

// SystemOverview bundles installation-wide counters with the biggest payers.
type SystemOverview struct {
	Stats       *storage.SystemStats
	TopSpenders []*storage.TopSpender
}

// Overview collects system statistics and the top spenders across all events.
func (s *AdminService) Overview(ctx context.Context) (*SystemOverview, error) {
	stats, err := s.store.GetSystemStats(ctx)
	if err != nil {
		slog.Error("GetSystemStats failed", "error", err)
		return nil, err
	}
	spenders, err := s.store.ListTopSpenders(ctx, topSpendersLimit)
	if err != nil {
		slog.Error("ListTopSpenders failed", "error", err)
		return nil, err
	}
	return &SystemOverview{Stats: stats, TopSpenders: spenders}, nil
}
