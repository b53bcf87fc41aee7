package app

import (
	"context"
	"errors"
	"log"

	"fundStatApp/internal/app/dto"
	"fundStatApp/internal/domain/useCases"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// EventProcessor consumes payment events from the feed, folds them into
// the rolling window statistics and broadcasts the update.
type EventProcessor struct {
	EventCh      chan *dto.PayEventDTO
	StatsService useCases.PayStatsService
	Broadcaster  useCases.Broadcaster
	DedupCache   map[string]struct{} // simple in-memory deduplication by feed id
}

func NewEventProcessor(eventCh chan *dto.PayEventDTO, statsService useCases.PayStatsService, broadcaster useCases.Broadcaster) *EventProcessor {
	return &EventProcessor{
		EventCh:      eventCh,
		StatsService: statsService,
		Broadcaster:  broadcaster,
		DedupCache:   make(map[string]struct{}),
	}
}

func (p *EventProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.EventCh:
			if err := p.processEvent(ctx, ev); err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping event processor")
					return ctx.Err()
				}
				// Other errors are logged and processing continues.
				log.Printf("Error processing pay event: %v", err)
			}
		}
	}
}

func (p *EventProcessor) processEvent(ctx context.Context, evDto *dto.PayEventDTO) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}
	if evDto == nil {
		return nil
	}

	if _, exists := p.DedupCache[evDto.ID]; exists {
		return nil
	}
	p.DedupCache[evDto.ID] = struct{}{}

	ev, err := evDto.ToModel()
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	if err := p.StatsService.ProcessPayEvent(ctx, ev); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	stats, err := p.StatsService.GetWindowStats(ctx, ev.ProjectID)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	if stats != nil {
		p.Broadcaster.BroadcastWindowStats(stats)
	}
	return nil
}
