package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/hirewell/internal/worker"
)

// ListingExpirer closes job listings past their expiry.
type ListingExpirer interface {
	ExpireJobListings(ctx context.Context) (int64, error)
}

// ExpireListingsHandler marks active job listings past their expiry as expired.
type ExpireListingsHandler struct {
	listings ListingExpirer
	logger   *slog.Logger
}

// NewExpireListingsHandler creates a new handler for listing expiry.
func NewExpireListingsHandler(listings ListingExpirer, logger *slog.Logger) *ExpireListingsHandler {
	return &ExpireListingsHandler{
		listings: listings,
		logger:   logger,
	}
}

// Type returns the task identifier.
func (h *ExpireListingsHandler) Type() string {
	return worker.TaskExpireJobListings
}

// Handle runs one expiry pass.
func (h *ExpireListingsHandler) Handle(ctx context.Context) error {
	n, err := h.listings.ExpireJobListings(ctx)
	if err != nil {
		return fmt.Errorf("expire job listings: %w", err)
	}
	h.logger.Debug("Listing expiry pass finished", "expired", n)
	return nil
}
