package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"ticket-ledger/models"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	eventsKey    = "ledger:events"
	ticketsKey   = "ledger:tickets"
	collectedKey = "ledger:collected"
)

// SnapshotService persists ledger state to Redis so a restart can pick
// up where the previous process left off. It receives write-through
// saves from the ledger and additionally rewrites the full state on an
// interval to reconcile missed writes.
type SnapshotService struct {
	Redis    *redis.Client
	interval time.Duration
}

func NewSnapshotService(redisClient *redis.Client, interval time.Duration) *SnapshotService {
	return &SnapshotService{
		Redis:    redisClient,
		interval: interval,
	}
}

// storedTicket re-exposes the claim hash that the API representation of
// a ticket deliberately hides.
type storedTicket struct {
	models.Ticket
	ClaimHash []byte `json:"claim_hash,omitempty"`
}

func (s *SnapshotService) SaveEvent(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("snapshot: marshal event %d: %w", event.ID, err)
	}
	return s.Redis.HSet(ctx, eventsKey, strconv.FormatUint(event.ID, 10), data).Err()
}

func (s *SnapshotService) SaveTickets(ctx context.Context, tickets []models.Ticket) error {
	pairs := make([]any, 0, len(tickets)*2)
	for _, ticket := range tickets {
		data, err := json.Marshal(storedTicket{Ticket: ticket, ClaimHash: ticket.ClaimHash})
		if err != nil {
			return fmt.Errorf("snapshot: marshal ticket %d: %w", ticket.ID, err)
		}
		pairs = append(pairs, strconv.FormatUint(ticket.ID, 10), data)
	}
	return s.Redis.HSet(ctx, ticketsKey, pairs...).Err()
}

func (s *SnapshotService) SaveCollected(ctx context.Context, collected decimal.Decimal) error {
	return s.Redis.Set(ctx, collectedKey, collected.String(), 0).Err()
}

// SnapshotAll writes the complete ledger state.
func (s *SnapshotService) SnapshotAll(ctx context.Context, ledger *LedgerService) error {
	events, tickets, collected := ledger.Snapshot()

	for _, event := range events {
		if err := s.SaveEvent(ctx, event); err != nil {
			return err
		}
	}
	if len(tickets) > 0 {
		if err := s.SaveTickets(ctx, tickets); err != nil {
			return err
		}
	}
	return s.SaveCollected(ctx, collected)
}

// Restore loads a previously persisted snapshot into the ledger. A
// missing snapshot is not an error; the ledger simply starts empty.
func (s *SnapshotService) Restore(ctx context.Context, ledger *LedgerService) error {
	rawEvents, err := s.Redis.HGetAll(ctx, eventsKey).Result()
	if err != nil {
		return fmt.Errorf("snapshot: read events: %w", err)
	}
	rawTickets, err := s.Redis.HGetAll(ctx, ticketsKey).Result()
	if err != nil {
		return fmt.Errorf("snapshot: read tickets: %w", err)
	}

	events := make([]models.Event, 0, len(rawEvents))
	for field, data := range rawEvents {
		var event models.Event
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return fmt.Errorf("snapshot: decode event %s: %w", field, err)
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	tickets := make([]models.Ticket, 0, len(rawTickets))
	for field, data := range rawTickets {
		var stored storedTicket
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return fmt.Errorf("snapshot: decode ticket %s: %w", field, err)
		}
		ticket := stored.Ticket
		ticket.ClaimHash = stored.ClaimHash
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })

	collected := decimal.Zero
	if raw, err := s.Redis.Get(ctx, collectedKey).Result(); err == nil {
		collected, err = decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("snapshot: decode collected balance: %w", err)
		}
	} else if err != redis.Nil {
		return fmt.Errorf("snapshot: read collected balance: %w", err)
	}

	if len(events) == 0 && len(tickets) == 0 {
		log.Println("No ledger snapshot found, starting empty")
		return nil
	}

	if err := ledger.LoadState(events, tickets, collected); err != nil {
		return err
	}

	log.Printf("Restored ledger snapshot: %d events, %d tickets", len(events), len(tickets))
	return nil
}

// Run periodically rewrites the full snapshot until ctx is cancelled.
func (s *SnapshotService) Run(ctx context.Context, ledger *LedgerService) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SnapshotAll(ctx, ledger); err != nil {
				log.Printf("Error writing ledger snapshot: %v", err)
			}
		case <-ctx.Done():
			log.Println("Snapshot loop stopping")
			return
		}
	}
}
