package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/events"
	"github.com/cqms-io/support-center/internal/persistence"
	"github.com/cqms-io/support-center/internal/repository"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

const (
	analyticsGenKey    = "cqms:analytics:gen"
	analyticsKeyFormat = "cqms:analytics:summary:g%s:top%d"
)

// AnalyticsService derives read-only summaries from the ticket store. Every
// summary is recomputed from the full ticket set; a short-lived Redis
// snapshot keeps repeated dashboard loads off the database.
type AnalyticsService struct {
	tickets     repository.TicketRepository
	cache       *persistence.Redis
	logger      *zap.Logger
	cacheTTL    time.Duration
	defaultTopN int
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(tickets repository.TicketRepository, cache *persistence.Redis, logger *zap.Logger, cacheTTL time.Duration, defaultTopN int) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTopN <= 0 {
		defaultTopN = 5
	}
	return &AnalyticsService{
		tickets:     tickets,
		cache:       cache,
		logger:      logger,
		cacheTTL:    cacheTTL,
		defaultTopN: defaultTopN,
	}
}

// PriorityStatusCount is a ticket count for one (priority, status) pair.
type PriorityStatusCount struct {
	Priority domain.TicketPriority `json:"priority"`
	Status   domain.TicketStatus   `json:"status"`
	Count    int                   `json:"count"`
}

// CustomerStatusCount is a ticket count for one (customer, status) pair.
type CustomerStatusCount struct {
	CustomerName string              `json:"customer_name"`
	Status       domain.TicketStatus `json:"status"`
	Count        int                 `json:"count"`
}

// SubjectCount is the frequency of one ticket subject.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// Summary aggregates the reporting views over the whole ticket set.
type Summary struct {
	TotalTickets        int                           `json:"total_tickets"`
	ClosedTickets       int                           `json:"closed_tickets"`
	MeanResolutionHours float64                       `json:"mean_resolution_hours"`
	TicketsByPriority   map[domain.TicketPriority]int `json:"tickets_by_priority"`
	TicketsByStatus     map[domain.TicketStatus]int   `json:"tickets_by_status"`
	ByPriorityStatus    []PriorityStatusCount         `json:"tickets_by_priority_status"`
	ByCustomerStatus    []CustomerStatusCount         `json:"tickets_by_customer_status"`
	TopSubjects         []SubjectCount                `json:"top_subjects"`
	GeneratedAt         time.Time                     `json:"generated_at"`
}

// GetSummary returns the aggregate view. Support only.
func (s *AnalyticsService) GetSummary(ctx context.Context, actorRole domain.Role, topN int) (*Summary, error) {
	if actorRole != domain.RoleSupport {
		return nil, apperrors.NewForbidden("only support may view analytics")
	}
	if topN <= 0 {
		topN = s.defaultTopN
	}

	key := s.cacheKey(ctx, topN)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Debug("analytics cache read failed", zap.Error(err))
	} else if ok {
		var summary Summary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
		s.logger.Debug("discarding undecodable analytics cache entry", zap.String("key", key))
	}

	tickets, err := s.tickets.ListAllWithCustomer(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	summary := computeSummary(tickets, topN)

	if encoded, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, key, string(encoded), s.cacheTTL); err != nil {
			s.logger.Debug("analytics cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// RegisterInvalidation bumps the cache generation whenever a ticket mutates.
// Stale generations simply expire via TTL.
func (s *AnalyticsService) RegisterInvalidation(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	handler := func(ctx context.Context, _ events.Event) error {
		if _, err := s.cache.Incr(ctx, analyticsGenKey); err != nil {
			s.logger.Debug("analytics cache invalidation failed", zap.Error(err))
		}
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, handler)
	dispatcher.Subscribe(events.EventTicketStatusChanged, handler)
	dispatcher.Subscribe(events.EventTicketReviewed, handler)
	dispatcher.Subscribe(events.EventTicketReopened, handler)
}

func (s *AnalyticsService) cacheKey(ctx context.Context, topN int) string {
	gen, ok, err := s.cache.Get(ctx, analyticsGenKey)
	if err != nil || !ok {
		gen = "0"
	}
	return fmt.Sprintf(analyticsKeyFormat, gen, topN)
}

var (
	priorityOrder = []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
	}
	statusOrder = []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusClosed,
	}
)

func computeSummary(tickets []domain.TicketWithCustomer, topN int) *Summary {
	summary := &Summary{
		TotalTickets:      len(tickets),
		TicketsByPriority: make(map[domain.TicketPriority]int),
		TicketsByStatus:   make(map[domain.TicketStatus]int),
		GeneratedAt:       time.Now(),
	}

	priorityStatus := make(map[domain.TicketPriority]map[domain.TicketStatus]int)
	customerStatus := make(map[string]map[domain.TicketStatus]int)
	subjects := make(map[string]int)
	var resolutionHours float64

	for i := range tickets {
		t := &tickets[i]
		summary.TicketsByPriority[t.Priority]++
		summary.TicketsByStatus[t.Status]++
		subjects[t.Subject]++

		if priorityStatus[t.Priority] == nil {
			priorityStatus[t.Priority] = make(map[domain.TicketStatus]int)
		}
		priorityStatus[t.Priority][t.Status]++

		if customerStatus[t.CustomerName] == nil {
			customerStatus[t.CustomerName] = make(map[domain.TicketStatus]int)
		}
		customerStatus[t.CustomerName][t.Status]++

		if t.Status == domain.TicketStatusClosed && t.ClosedAt != nil {
			summary.ClosedTickets++
			resolutionHours += t.ClosedAt.Sub(t.CreatedAt).Hours()
		}
	}

	if summary.ClosedTickets > 0 {
		summary.MeanResolutionHours = resolutionHours / float64(summary.ClosedTickets)
	}

	for _, priority := range priorityOrder {
		for _, status := range statusOrder {
			if count := priorityStatus[priority][status]; count > 0 {
				summary.ByPriorityStatus = append(summary.ByPriorityStatus, PriorityStatusCount{
					Priority: priority,
					Status:   status,
					Count:    count,
				})
			}
		}
	}

	names := make([]string, 0, len(customerStatus))
	for name := range customerStatus {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, status := range statusOrder {
			if count := customerStatus[name][status]; count > 0 {
				summary.ByCustomerStatus = append(summary.ByCustomerStatus, CustomerStatusCount{
					CustomerName: name,
					Status:       status,
					Count:        count,
				})
			}
		}
	}

	summary.TopSubjects = topSubjects(subjects, topN)
	return summary
}

func topSubjects(subjects map[string]int, n int) []SubjectCount {
	counts := make([]SubjectCount, 0, len(subjects))
	for subject, count := range subjects {
		counts = append(counts, SubjectCount{Subject: subject, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Subject < counts[j].Subject
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
