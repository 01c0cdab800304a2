package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"
	"ticket-ledger/utils"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// LedgerStore persists committed ledger state. Writes happen after the
// in-memory commit and are best-effort; the periodic snapshot loop
// reconciles anything a write-through missed.
type LedgerStore interface {
	SaveEvent(ctx context.Context, event models.Event) error
	SaveTickets(ctx context.Context, tickets []models.Ticket) error
	SaveCollected(ctx context.Context, collected decimal.Decimal) error
}

// LedgerNotifier publishes ledger commits to interested clients.
type LedgerNotifier interface {
	EventCreated(event models.Event)
	EventToggled(event models.Event)
	TicketsSold(event models.Event, buyer string, ticketIDs []uint64)
}

// OperationTracker records ledger operation outcomes for monitoring.
type OperationTracker interface {
	TrackLedgerOperation(operation, result string)
	TrackPurchaseDuration(eventID uint64, duration time.Duration)
}

// LedgerService is the event and ticket ledger: an ordered table of
// events (ids dense from 0), a ticket ownership table (ids dense from 0)
// and the retained payment balance. All mutations go through its methods
// under a single write lock; every operation either fully commits or
// leaves no trace.
type LedgerService struct {
	mu        sync.RWMutex
	owner     string
	events    []*models.Event
	tickets   []models.Ticket
	collected decimal.Decimal

	store    LedgerStore
	notifier LedgerNotifier
	monitor  OperationTracker
}

// NewLedgerService creates an empty ledger. owner is the deployment-time
// authority allowed to toggle any event. store, notifier and monitor may
// be nil.
func NewLedgerService(owner string, store LedgerStore, notifier LedgerNotifier, monitor OperationTracker) *LedgerService {
	return &LedgerService{
		owner:     owner,
		collected: decimal.Zero,
		store:     store,
		notifier:  notifier,
		monitor:   monitor,
	}
}

// AttachMonitor wires operation tracking after construction.
func (s *LedgerService) AttachMonitor(monitor OperationTracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitor = monitor
}

type CreateEventInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	MaxTickets  int
	EventDate   int64
	Location    string
	Category    string
	ImageCID    string
	MetadataCID string
}

// CreateEvent allocates the next sequential event id for the caller.
func (s *LedgerService) CreateEvent(ctx context.Context, caller string, in CreateEventInput) (uint64, error) {
	if caller == "" {
		s.track("create_event", "rejected")
		return 0, fmt.Errorf("create event: caller identity required: %w", status.ErrInvalidInput)
	}
	if in.MaxTickets <= 0 {
		s.track("create_event", "rejected")
		return 0, fmt.Errorf("create event: max tickets must be positive: %w", status.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		s.track("create_event", "rejected")
		return 0, fmt.Errorf("create event: price must not be negative: %w", status.ErrInvalidInput)
	}

	s.mu.Lock()
	event := &models.Event{
		ID:          uint64(len(s.events)),
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		Price:       in.Price,
		MaxTickets:  in.MaxTickets,
		TicketsSold: 0,
		EventDate:   in.EventDate,
		IsActive:    true,
		Creator:     caller,
		ImageCID:    in.ImageCID,
		MetadataCID: in.MetadataCID,
	}
	s.events = append(s.events, event)
	committed := *event
	s.mu.Unlock()

	s.persistEvent(ctx, committed)
	if s.notifier != nil {
		s.notifier.EventCreated(committed)
	}
	s.track("create_event", "success")

	return committed.ID, nil
}

// BuyTicket mints quantity tickets for the caller against eventID.
// Preconditions are checked in order, first failure wins, and nothing is
// mutated on failure. The full attached payment is retained, including
// any overpayment.
func (s *LedgerService) BuyTicket(ctx context.Context, caller string, eventID uint64, quantity int, payment decimal.Decimal) ([]models.TicketIssue, error) {
	started := time.Now()

	s.mu.Lock()
	event, err := s.eventAt(eventID)
	if err != nil {
		s.mu.Unlock()
		s.track("buy_ticket", "rejected")
		return nil, err
	}
	if quantity < 1 {
		s.mu.Unlock()
		s.track("buy_ticket", "rejected")
		return nil, status.ErrInvalidQuantity
	}
	if !event.IsActive {
		s.mu.Unlock()
		s.track("buy_ticket", "rejected")
		return nil, status.ErrEventInactive
	}
	if event.TicketsSold+quantity > event.MaxTickets {
		s.mu.Unlock()
		s.track("buy_ticket", "rejected")
		return nil, status.ErrSoldOut
	}
	required := event.Price.Mul(decimal.NewFromInt(int64(quantity)))
	if payment.Cmp(required) < 0 {
		s.mu.Unlock()
		s.track("buy_ticket", "rejected")
		return nil, status.ErrInsufficientPayment
	}

	// Mint everything up front so a claim-code failure aborts with the
	// ledger untouched.
	now := time.Now()
	minted := make([]models.Ticket, 0, quantity)
	issues := make([]models.TicketIssue, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := utils.GenerateClaimCode()
		if err != nil {
			s.mu.Unlock()
			s.track("buy_ticket", "error")
			return nil, fmt.Errorf("buy ticket: generate claim code: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			s.mu.Unlock()
			s.track("buy_ticket", "error")
			return nil, fmt.Errorf("buy ticket: hash claim code: %w", err)
		}

		ticketID := uint64(len(s.tickets)) + uint64(i)
		minted = append(minted, models.Ticket{
			ID:          ticketID,
			EventID:     eventID,
			Owner:       caller,
			PurchasedAt: now,
			ClaimHash:   hash,
		})
		issues = append(issues, models.TicketIssue{TicketID: ticketID, ClaimCode: code})
	}

	s.tickets = append(s.tickets, minted...)
	event.TicketsSold += quantity
	s.collected = s.collected.Add(payment)
	committed := *event
	collected := s.collected
	s.mu.Unlock()

	s.persistEvent(ctx, committed)
	s.persistTickets(ctx, minted)
	s.persistCollected(ctx, collected)
	if s.notifier != nil {
		ids := make([]uint64, len(minted))
		for i, t := range minted {
			ids[i] = t.ID
		}
		s.notifier.TicketsSold(committed, caller, ids)
	}
	s.track("buy_ticket", "success")
	if s.monitor != nil {
		s.monitor.TrackPurchaseDuration(eventID, time.Since(started))
	}

	return issues, nil
}

// ToggleEventActive flips the event's active flag. Only the event's
// creator or the contract owner may call it. Returns the new value.
func (s *LedgerService) ToggleEventActive(ctx context.Context, caller string, eventID uint64) (bool, error) {
	s.mu.Lock()
	event, err := s.eventAt(eventID)
	if err != nil {
		s.mu.Unlock()
		s.track("toggle_event", "rejected")
		return false, err
	}
	if caller != event.Creator && (s.owner == "" || caller != s.owner) {
		s.mu.Unlock()
		s.track("toggle_event", "rejected")
		return false, status.ErrNotAuthorized
	}

	event.IsActive = !event.IsActive
	committed := *event
	s.mu.Unlock()

	s.persistEvent(ctx, committed)
	if s.notifier != nil {
		s.notifier.EventToggled(committed)
	}
	s.track("toggle_event", "success")

	return committed.IsActive, nil
}

// CheckInTicket marks a ticket as used at the venue. The ticket owner,
// the event creator or the contract owner may check in, and the claim
// code handed out at purchase time must match.
func (s *LedgerService) CheckInTicket(ctx context.Context, caller string, ticketID uint64, claimCode string) error {
	s.mu.Lock()
	if ticketID >= uint64(len(s.tickets)) {
		s.mu.Unlock()
		s.track("check_in", "rejected")
		return status.ErrTicketNotFound
	}
	ticket := &s.tickets[ticketID]
	event, err := s.eventAt(ticket.EventID)
	if err != nil {
		s.mu.Unlock()
		s.track("check_in", "error")
		return err
	}
	if caller != ticket.Owner && caller != event.Creator && (s.owner == "" || caller != s.owner) {
		s.mu.Unlock()
		s.track("check_in", "rejected")
		return status.ErrNotAuthorized
	}
	if ticket.CheckedIn {
		s.mu.Unlock()
		s.track("check_in", "rejected")
		return status.ErrTicketUsed
	}
	if err := bcrypt.CompareHashAndPassword(ticket.ClaimHash, []byte(claimCode)); err != nil {
		s.mu.Unlock()
		s.track("check_in", "rejected")
		return status.ErrInvalidClaimCode
	}

	ticket.CheckedIn = true
	committed := *ticket
	s.mu.Unlock()

	s.persistTickets(ctx, []models.Ticket{committed})
	s.track("check_in", "success")

	return nil
}

// GetEventDetails returns the full event record.
func (s *LedgerService) GetEventDetails(eventID uint64) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, err := s.eventAt(eventID)
	if err != nil {
		return models.Event{}, err
	}
	return *event, nil
}

// GetActiveEvents returns all active events in ascending id order.
func (s *LedgerService) GetActiveEvents() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := []models.Event{}
	for _, event := range s.events {
		if event.IsActive {
			active = append(active, *event)
		}
	}
	return active
}

// GetTicketsByAddress resolves every ticket owned by address to its
// parent event, one entry per ticket, in mint order.
func (s *LedgerService) GetTicketsByAddress(address string) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []models.Event{}
	for _, ticket := range s.tickets {
		if ticket.Owner == address {
			events = append(events, *s.events[ticket.EventID])
		}
	}
	return events
}

// GetOwnedTickets returns the raw ticket records owned by address.
func (s *LedgerService) GetOwnedTickets(address string) []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := []models.Ticket{}
	for _, ticket := range s.tickets {
		if ticket.Owner == address {
			owned = append(owned, ticket)
		}
	}
	return owned
}

// BalanceOf counts the tickets owned by address.
func (s *LedgerService) BalanceOf(address string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, ticket := range s.tickets {
		if ticket.Owner == address {
			count++
		}
	}
	return count
}

// OwnerOf returns the owning address of a ticket id.
func (s *LedgerService) OwnerOf(ticketID uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ticketID >= uint64(len(s.tickets)) {
		return "", status.ErrTicketNotFound
	}
	return s.tickets[ticketID].Owner, nil
}

// TotalCollected returns the payment balance retained by the ledger.
// Collected funds are never paid out or refunded.
func (s *LedgerService) TotalCollected() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collected
}

type LedgerStats struct {
	TotalEvents  int             `json:"total_events"`
	ActiveEvents int             `json:"active_events"`
	TotalTickets int             `json:"total_tickets"`
	Collected    decimal.Decimal `json:"collected"`
}

func (s *LedgerService) Stats() LedgerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := LedgerStats{
		TotalEvents:  len(s.events),
		TotalTickets: len(s.tickets),
		Collected:    s.collected,
	}
	for _, event := range s.events {
		if event.IsActive {
			stats.ActiveEvents++
		}
	}
	return stats
}

// Snapshot copies the current state for persistence.
func (s *LedgerService) Snapshot() ([]models.Event, []models.Ticket, decimal.Decimal) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.Event, len(s.events))
	for i, event := range s.events {
		events[i] = *event
	}
	tickets := make([]models.Ticket, len(s.tickets))
	copy(tickets, s.tickets)

	return events, tickets, s.collected
}

// LoadState replaces the ledger's state, used once at boot to restore a
// snapshot. Event and ticket ids must be dense and ascending from 0.
func (s *LedgerService) LoadState(events []models.Event, tickets []models.Ticket, collected decimal.Decimal) error {
	for i, event := range events {
		if event.ID != uint64(i) {
			return fmt.Errorf("load state: event id %d at position %d breaks dense ordering", event.ID, i)
		}
	}
	for i, ticket := range tickets {
		if ticket.ID != uint64(i) {
			return fmt.Errorf("load state: ticket id %d at position %d breaks dense ordering", ticket.ID, i)
		}
		if ticket.EventID >= uint64(len(events)) {
			return fmt.Errorf("load state: ticket %d references unknown event %d", ticket.ID, ticket.EventID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]*models.Event, len(events))
	for i := range events {
		event := events[i]
		s.events[i] = &event
	}
	s.tickets = make([]models.Ticket, len(tickets))
	copy(s.tickets, tickets)
	s.collected = collected

	return nil
}

func (s *LedgerService) eventAt(eventID uint64) (*models.Event, error) {
	if eventID >= uint64(len(s.events)) {
		return nil, status.ErrEventNotFound
	}
	return s.events[eventID], nil
}

func (s *LedgerService) persistEvent(ctx context.Context, event models.Event) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		log.Printf("ledger: persist event %d: %v", event.ID, err)
	}
}

func (s *LedgerService) persistTickets(ctx context.Context, tickets []models.Ticket) {
	if s.store == nil || len(tickets) == 0 {
		return
	}
	if err := s.store.SaveTickets(ctx, tickets); err != nil {
		log.Printf("ledger: persist %d tickets: %v", len(tickets), err)
	}
}

func (s *LedgerService) persistCollected(ctx context.Context, collected decimal.Decimal) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveCollected(ctx, collected); err != nil {
		log.Printf("ledger: persist collected balance: %v", err)
	}
}

func (s *LedgerService) track(operation, result string) {
	if s.monitor != nil {
		s.monitor.TrackLedgerOperation(operation, result)
	}
}
