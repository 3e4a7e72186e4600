package health

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/directory"
)

// MsgHealthUpdate is broadcast whenever an item changes status.
const MsgHealthUpdate = "health:update"

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// Service manages the health state of all tracked items.
// All state is in-memory and resets on application restart.
type Service struct {
	items       map[HealthCategory]map[string]*HealthItem
	mu          sync.RWMutex
	broadcaster Broadcaster
	clock       clockwork.Clock
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		clock:  clockwork.NewRealClock(),
		logger: logger.With().Str("component", "health").Logger(),
	}

	// Initialize maps for all categories
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}

	return s
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// SetClock replaces the clock used for status timestamps.
func (s *Service) SetClock(c clockwork.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

// RegisterItem adds a new item to health tracking with OK status.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items[category] == nil {
		s.items[category] = make(map[string]*HealthItem)
	}
	item := &HealthItem{
		ID:       id,
		Category: category,
		Name:     name,
		Status:   StatusOK,
	}
	s.items[category][id] = item

	s.logger.Debug().
		Str("category", string(category)).
		Str("id", id).
		Str("name", name).
		Msg("Registered health item")

	s.broadcastUpdate(item)
}

// SetError sets an item to Error status with a message.
func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

// SetWarning sets an item to Warning status with a message.
func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus resets an item to OK status.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

// RecordCheck maps the outcome of a connectivity check onto an item.
// An unconfigured directory is a warning; any other failure an error.
func (s *Service) RecordCheck(category HealthCategory, id string, err error) {
	switch {
	case err == nil:
		s.ClearStatus(category, id)
	case errors.Is(err, directory.ErrNotConfigured):
		s.SetWarning(category, id, err.Error())
	default:
		s.SetError(category, id, err.Error())
	}
}

// Check runs test and records its outcome.
func (s *Service) Check(ctx context.Context, category HealthCategory, id string, test func(context.Context) error) error {
	err := test(ctx)
	s.RecordCheck(category, id, err)
	return err
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[category][id]
	if !exists {
		s.logger.Warn().
			Str("category", string(category)).
			Str("id", id).
			Msg("Attempted to update status for unregistered item")
		return
	}

	// Only update if status changed
	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message

	if status != StatusOK {
		now := s.clock.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("name", item.Name).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	s.broadcastUpdate(item)
}

// GetAll returns all health items grouped by category.
func (s *Service) GetAll() HealthResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := make(HealthResponse, len(s.items))
	for cat := range s.items {
		resp[cat] = s.itemsToSlice(cat)
	}
	return resp
}

// GetItem returns a single item by category and ID.
func (s *Service) GetItem(category HealthCategory, id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		c := *item
		return &c
	}
	return nil
}

// GetSummary returns counts per category.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{
		Categories: make([]CategorySummary, 0, len(AllCategories())),
	}

	for _, cat := range AllCategories() {
		catSummary := CategorySummary{Category: cat}

		for _, item := range s.items[cat] {
			switch item.Status {
			case StatusOK:
				catSummary.OK++
			case StatusWarning:
				catSummary.Warning++
			case StatusError:
				catSummary.Error++
			}
		}

		if catSummary.HasIssues() {
			summary.HasIssues = true
		}
		summary.Categories = append(summary.Categories, catSummary)
	}

	return summary
}

// IsHealthy returns true if the specified item is OK.
func (s *Service) IsHealthy(category HealthCategory, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[category][id]; exists {
		return item.Status == StatusOK
	}
	return false
}

func (s *Service) itemsToSlice(category HealthCategory) []HealthItem {
	items := make([]HealthItem, 0, len(s.items[category]))
	for _, item := range s.items[category] {
		items = append(items, *item)
	}
	slices.SortFunc(items, func(a, b HealthItem) int { return strings.Compare(a.ID, b.ID) })
	return items
}

// broadcastUpdate sends a health update via WebSocket. Callers hold s.mu.
func (s *Service) broadcastUpdate(item *HealthItem) {
	if s.broadcaster == nil {
		return
	}

	payload := HealthUpdatePayload{
		Category:  item.Category,
		ID:        item.ID,
		Name:      item.Name,
		Status:    item.Status,
		Message:   item.Message,
		Timestamp: item.Timestamp,
	}

	if err := s.broadcaster.Broadcast(MsgHealthUpdate, payload); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to broadcast health update")
	}
}
