package service

import (
	"context"
	"fmt"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
	"fundStatApp/internal/domain/useCases"
)

// HoldingsService resolves the set of projects a wallet has paid into.
type HoldingsService struct {
	querier repository.ProjectQuerier
}

func NewHoldingsService(querier repository.ProjectQuerier) *HoldingsService {
	return &HoldingsService{querier: querier}
}

var _ useCases.HoldingsProvider = (*HoldingsService)(nil)

// Holdings fetches all participation records for wallet, ordered by
// balance descending, reduces them to a first-seen-ordered set of project
// ids and returns the matching projects. An empty wallet is the disabled
// state: no data, no error.
func (s *HoldingsService) Holdings(ctx context.Context, wallet string) ([]model.Project, error) {
	if wallet == "" {
		return nil, nil
	}

	participants, err := s.querier.ParticipantsOf(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}

	ids := DedupeProjectIDs(participants)
	if len(ids) == 0 {
		return []model.Project{}, nil
	}

	projects, err := s.querier.ProjectsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	return projects, nil
}

// OwnedProjects returns the projects whose owner is wallet. Like Holdings,
// an empty wallet is the disabled state.
func (s *HoldingsService) OwnedProjects(ctx context.Context, wallet string) ([]model.Project, error) {
	if wallet == "" {
		return nil, nil
	}

	projects, err := s.querier.ProjectsByOwner(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch owned projects: %w", err)
	}
	return projects, nil
}

// DedupeProjectIDs reduces participation records to their project ids,
// keeping only the first occurrence of each and preserving input order.
func DedupeProjectIDs(participants []model.Participant) []string {
	seen := make(map[string]struct{}, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.ProjectID == "" {
			continue
		}
		if _, ok := seen[p.ProjectID]; ok {
			continue
		}
		seen[p.ProjectID] = struct{}{}
		ids = append(ids, p.ProjectID)
	}
	return ids
}
