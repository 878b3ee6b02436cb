package service

import (
	"log/slog"

	"github.com/DukeRupert/hirewell/internal/repository"
)

// Services bundles the entitlement engine for the process that hosts it.
type Services struct {
	Subscriptions SubscriptionService
	Entitlements  EntitlementService
	Usage         UsageService
	Listings      ListingService
	Jobs          JobService
	CVs           CVService
}

// New wires every service against one repository.
func New(repo *repository.Queries, logger *slog.Logger, config SubscriptionServiceConfig) *Services {
	listings := NewListingService(repo, logger)
	subscriptions := NewSubscriptionService(repo, repo, listings, logger, config)
	entitlements := NewEntitlementService(logger)
	usage := NewUsageService(repo, logger)

	return &Services{
		Subscriptions: subscriptions,
		Entitlements:  entitlements,
		Usage:         usage,
		Listings:      listings,
		Jobs:          NewJobService(repo, subscriptions, entitlements, usage, logger),
		CVs:           NewCVService(repo, subscriptions, entitlements, usage, logger),
	}
}
