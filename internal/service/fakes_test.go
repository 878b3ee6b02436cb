package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory stand-in for *repository.Queries. Each method
// holds the lock for its whole body, giving the same single-statement
// atomicity the SQL has.
type memStore struct {
	mu     sync.Mutex
	clock  func() time.Time
	users  map[uuid.UUID]string
	subs   map[subKey]repository.Subscription
	jobs   map[uuid.UUID]repository.Job
	cvs    []repository.Cv
	events []repository.InsertSubscriptionEventParams

	// Injected failures.
	userErr      error
	getErr       error
	listErr      error
	incrementErr error
	createJobErr error
	eventErr     error
	downgradeErr map[uuid.UUID]error

	inserts    int
	increments int
}

type subKey struct {
	userID uuid.UUID
	role   string
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		clock:        clock,
		users:        make(map[uuid.UUID]string),
		subs:         make(map[subKey]repository.Subscription),
		jobs:         make(map[uuid.UUID]repository.Job),
		downgradeErr: make(map[uuid.UUID]error),
	}
}

func fkViolation() error {
	return fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
}

func (m *memStore) addUser(role domain.Role) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = string(role)
	return id
}

func (m *memStore) put(sub repository.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	m.subs[subKey{sub.UserID, sub.Role}] = sub
}

func (m *memStore) get(userID uuid.UUID, role domain.Role) (repository.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[subKey{userID, string(role)}]
	return sub, ok
}

func (m *memStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

// --- UserDirectory ---

func (m *memStore) GetUserRole(_ context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userErr != nil {
		return "", m.userErr
	}
	role, ok := m.users[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return role, nil
}

// --- SubscriptionStore ---

func (m *memStore) GetSubscriptionByUserAndRole(_ context.Context, arg repository.GetSubscriptionByUserAndRoleParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return repository.Subscription{}, m.getErr
	}
	sub, ok := m.subs[subKey{arg.UserID, arg.Role}]
	if !ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	return sub, nil
}

func (m *memStore) InsertSubscriptionIfAbsent(_ context.Context, arg repository.InsertSubscriptionParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[arg.UserID]; !ok {
		return repository.Subscription{}, fkViolation()
	}
	key := subKey{arg.UserID, arg.Role}
	if _, ok := m.subs[key]; ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	sub := repository.Subscription{
		ID:            arg.ID,
		UserID:        arg.UserID,
		Role:          arg.Role,
		Plan:          arg.Plan,
		Status:        arg.Status,
		StartDate:     arg.StartDate,
		EndDate:       arg.EndDate,
		BillingPeriod: arg.BillingPeriod,
		PriceCents:    arg.PriceCents,
		Currency:      arg.Currency,
		AutoRenew:     arg.AutoRenew,
		PaymentMethod: arg.PaymentMethod,
		CreatedAt:     arg.Now,
		UpdatedAt:     arg.Now,
	}
	m.subs[key] = sub
	m.inserts++
	return sub, nil
}

func resetRowToFree(sub *repository.Subscription, start, end time.Time) {
	sub.Plan = string(domain.PlanFree)
	sub.Status = string(domain.SubscriptionStatusActive)
	sub.StartDate = start
	sub.EndDate = end
	sub.BillingPeriod = string(domain.BillingMonthly)
	sub.PriceCents = 0
	sub.AutoRenew = true
	sub.PaymentMethod = domain.FreePaymentMethod
	sub.JobPostingsUsed = 0
	sub.CvCreationsUsed = 0
	sub.CvDownloadsUsed = 0
	sub.FeaturedJobsUsed = 0
	sub.PremiumTemplatesUsed = 0
	sub.UpdatedAt = start
}

func (m *memStore) ResetInactiveSubscription(_ context.Context, arg repository.ResetInactiveSubscriptionParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subKey{arg.UserID, arg.Role}
	sub, ok := m.subs[key]
	if !ok || sub.Status != arg.ExpectedStatus {
		return repository.Subscription{}, sql.ErrNoRows
	}
	resetRowToFree(&sub, arg.StartDate, arg.EndDate)
	m.subs[key] = sub
	return sub, nil
}

func (m *memStore) DowngradeExpiredSubscription(_ context.Context, arg repository.DowngradeExpiredSubscriptionParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subKey{arg.UserID, arg.Role}
	sub, ok := m.subs[key]
	if ok {
		if err := m.downgradeErr[sub.ID]; err != nil {
			return repository.Subscription{}, err
		}
	}
	if !ok || sub.Status != string(domain.SubscriptionStatusActive) || sub.EndDate.After(arg.StartDate) {
		return repository.Subscription{}, sql.ErrNoRows
	}
	resetRowToFree(&sub, arg.StartDate, arg.EndDate)
	m.subs[key] = sub
	return sub, nil
}

func (m *memStore) UpsertSubscriptionPlan(_ context.Context, arg repository.UpsertSubscriptionPlanParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[arg.UserID]; !ok {
		return repository.Subscription{}, fkViolation()
	}
	key := subKey{arg.UserID, arg.Role}
	sub, ok := m.subs[key]
	if !ok {
		sub = repository.Subscription{ID: arg.ID, UserID: arg.UserID, Role: arg.Role, CreatedAt: arg.StartDate}
	}
	sub.Plan = arg.Plan
	sub.Status = string(domain.SubscriptionStatusActive)
	sub.StartDate = arg.StartDate
	sub.EndDate = arg.EndDate
	sub.BillingPeriod = arg.BillingPeriod
	sub.PriceCents = arg.PriceCents
	sub.Currency = arg.Currency
	sub.AutoRenew = arg.AutoRenew
	sub.PaymentMethod = arg.PaymentMethod
	sub.JobPostingsUsed = 0
	sub.CvCreationsUsed = 0
	sub.CvDownloadsUsed = 0
	sub.FeaturedJobsUsed = 0
	sub.PremiumTemplatesUsed = 0
	sub.UpdatedAt = arg.StartDate
	m.subs[key] = sub
	return sub, nil
}

func (m *memStore) SetSubscriptionAutoRenew(_ context.Context, arg repository.SetSubscriptionAutoRenewParams) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subKey{arg.UserID, arg.Role}
	sub, ok := m.subs[key]
	if !ok {
		return repository.Subscription{}, sql.ErrNoRows
	}
	sub.AutoRenew = arg.AutoRenew
	m.subs[key] = sub
	return sub, nil
}

func (m *memStore) ListExpiredActiveSubscriptions(_ context.Context, arg repository.ListExpiredActiveSubscriptionsParams) ([]repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var page []repository.Subscription
	for _, sub := range m.subs {
		if sub.Status == string(domain.SubscriptionStatusActive) &&
			!sub.EndDate.After(arg.Now) &&
			bytes.Compare(sub.ID[:], arg.AfterID[:]) > 0 {
			page = append(page, sub)
		}
	}
	slices.SortFunc(page, func(a, b repository.Subscription) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	if len(page) > int(arg.Limit) {
		page = page[:arg.Limit]
	}
	return page, nil
}

func (m *memStore) InsertSubscriptionEvent(_ context.Context, arg repository.InsertSubscriptionEventParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventErr != nil {
		return m.eventErr
	}
	m.events = append(m.events, arg)
	return nil
}

// --- UsageStore ---

func (m *memStore) IncrementSubscriptionUsage(_ context.Context, arg repository.IncrementSubscriptionUsageParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	key := subKey{arg.UserID, arg.Role}
	sub, ok := m.subs[key]
	if !ok {
		return 0, sql.ErrNoRows
	}
	var counter *int64
	switch domain.QuotaType(arg.Counter) {
	case domain.QuotaTypeJobPostings:
		counter = &sub.JobPostingsUsed
	case domain.QuotaTypeCVCreations:
		counter = &sub.CvCreationsUsed
	case domain.QuotaTypeCVDownloads:
		counter = &sub.CvDownloadsUsed
	case domain.QuotaTypeFeaturedJobs:
		counter = &sub.FeaturedJobsUsed
	case domain.QuotaTypePremiumTemplates:
		counter = &sub.PremiumTemplatesUsed
	default:
		return 0, fmt.Errorf("unknown usage counter %q", arg.Counter)
	}
	*counter++
	m.subs[key] = sub
	m.increments++
	return *counter, nil
}

// --- JobStore ---

func (m *memStore) CreateJob(_ context.Context, arg repository.CreateJobParams) (repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createJobErr != nil {
		return repository.Job{}, m.createJobErr
	}
	job := repository.Job{
		ID:          arg.ID,
		RecruiterID: arg.RecruiterID,
		Title:       arg.Title,
		Status:      arg.Status,
		PublishedAt: arg.PublishedAt,
		ExpiresAt:   arg.ExpiresAt,
		IsFeatured:  arg.IsFeatured,
		CreatedAt:   arg.CreatedAt,
		UpdatedAt:   arg.CreatedAt,
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memStore) putJob(recruiterID uuid.UUID, status domain.JobStatus, expiresAt time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.jobs[id] = repository.Job{
		ID:          id,
		RecruiterID: recruiterID,
		Title:       "Backend Engineer",
		Status:      string(status),
		ExpiresAt:   sql.NullTime{Time: expiresAt, Valid: true},
	}
	return id
}

func (m *memStore) job(id uuid.UUID) repository.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *memStore) jobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *memStore) ListJobsByRecruiterAndStatuses(_ context.Context, arg repository.ListJobsByRecruiterAndStatusesParams) ([]repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []repository.Job
	for _, job := range m.jobs {
		if job.RecruiterID == arg.RecruiterID && slices.Contains(arg.Statuses, job.Status) {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (m *memStore) ExtendJobExpiry(_ context.Context, arg repository.ExtendJobExpiryParams) (repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[arg.ID]
	if !ok || !slices.Contains(arg.Statuses, job.Status) {
		return repository.Job{}, sql.ErrNoRows
	}
	base := m.clock()
	if job.ExpiresAt.Valid {
		base = job.ExpiresAt.Time
	}
	job.ExpiresAt = sql.NullTime{Time: base.AddDate(0, 0, int(arg.Days)), Valid: true}
	m.jobs[arg.ID] = job
	return job, nil
}

func (m *memStore) ExpireJobListings(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, job := range m.jobs {
		if job.Status == string(domain.JobStatusActive) && job.ExpiresAt.Valid && !job.ExpiresAt.Time.After(now) {
			job.Status = string(domain.JobStatusExpired)
			m.jobs[id] = job
			n++
		}
	}
	return n, nil
}

// --- CVStore ---

func (m *memStore) CreateCV(_ context.Context, arg repository.CreateCVParams) (repository.Cv, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cv := repository.Cv{
		ID:                arg.ID,
		OwnerID:           arg.OwnerID,
		Title:             arg.Title,
		TemplateID:        arg.TemplateID,
		IsPremiumTemplate: arg.IsPremiumTemplate,
		CreatedAt:         arg.CreatedAt,
		UpdatedAt:         arg.CreatedAt,
	}
	m.cvs = append(m.cvs, cv)
	return cv, nil
}

// =============================================================================
// Wiring
// =============================================================================

// fixedClock is a clock tests can move forward.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServices struct {
	store         *memStore
	clock         *fixedClock
	subscriptions *subscriptionService
	listings      *listingService
	entitlements  EntitlementService
	usage         UsageService
	jobs          *jobService
	cvs           *cvService
}

func newTestServices() *testServices {
	clock := &fixedClock{t: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)}
	store := newMemStore(clock.Now)
	logger := testLogger()

	listings := &listingService{jobs: store, logger: logger, now: clock.Now}
	subscriptions := &subscriptionService{
		store:    store,
		users:    store,
		listings: listings,
		logger:   logger,
		config:   normalizeConfig(SubscriptionServiceConfig{SweepBatchSize: 2}),
		now:      clock.Now,
	}
	entitlements := NewEntitlementService(logger)
	usage := NewUsageService(store, logger)

	return &testServices{
		store:         store,
		clock:         clock,
		subscriptions: subscriptions,
		listings:      listings,
		entitlements:  entitlements,
		usage:         usage,
		jobs: &jobService{
			jobs:          store,
			subscriptions: subscriptions,
			entitlements:  entitlements,
			usage:         usage,
			logger:        logger,
			now:           clock.Now,
		},
		cvs: &cvService{
			cvs:           store,
			subscriptions: subscriptions,
			entitlements:  entitlements,
			usage:         usage,
			logger:        logger,
			now:           clock.Now,
		},
	}
}

// seed stores a subscription row for userID on plan with the given window.
func (ts *testServices) seed(userID uuid.UUID, role domain.Role, plan domain.Plan, status domain.SubscriptionStatus, start, end time.Time) repository.Subscription {
	sub := repository.Subscription{
		ID:            uuid.New(),
		UserID:        userID,
		Role:          string(role),
		Plan:          string(plan),
		Status:        string(status),
		StartDate:     start,
		EndDate:       end,
		BillingPeriod: string(domain.BillingMonthly),
		PriceCents:    domain.PlanPrice(plan, domain.BillingMonthly),
		Currency:      domain.DefaultCurrency,
		PaymentMethod: "pm_card_visa",
		CreatedAt:     start,
		UpdatedAt:     start,
	}
	ts.store.put(sub)
	return sub
}
