package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/repository"
)

// projectKeys is the field selection used for every project query.
var projectKeys = []string{
	"id", "projectId", "handle", "owner", "createdAt",
	"metadataUri", "currentBalance", "totalPaid", "cv",
}

const (
	projectMemoTTL  = 60 * time.Second
	projectMemoSize = 128
)

// Querier implements repository.ProjectQuerier on top of Client. Project
// lookups are memoized for a short interval since the same id sets recur
// while a trending window is stable.
type Querier struct {
	client *Client
	memo   *expirable.LRU[string, []model.Project]
}

func NewQuerier(client *Client) *Querier {
	return &Querier{
		client: client,
		memo:   expirable.NewLRU[string, []model.Project](projectMemoSize, nil, projectMemoTTL),
	}
}

var _ repository.ProjectQuerier = (*Querier)(nil)

type payEventRecord struct {
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Project   struct {
		ID string `json:"id"`
	} `json:"project"`
}

type projectRecord struct {
	ID             string `json:"id"`
	ProjectID      uint64 `json:"projectId"`
	Handle         string `json:"handle"`
	Owner          string `json:"owner"`
	CreatedAt      int64  `json:"createdAt"`
	MetadataURI    string `json:"metadataUri"`
	CurrentBalance string `json:"currentBalance"`
	TotalPaid      string `json:"totalPaid"`
	CV             string `json:"cv"`
}

type participantRecord struct {
	Wallet  string `json:"wallet"`
	Balance string `json:"balance"`
	Project struct {
		ID string `json:"id"`
	} `json:"project"`
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// PayEventsSince returns every payment event with timestamp >= since.
func (q *Querier) PayEventsSince(ctx context.Context, since int64) ([]model.PayEvent, error) {
	records, err := q.client.QueryExhaustive(ctx, &Query{
		Entity:     "payEvent",
		Keys:       []string{"amount", "timestamp"},
		NestedKeys: map[string][]string{"project": {"id"}},
		Where:      []Where{{Key: "timestamp", Op: OpGte, Value: since}},
	})
	if err != nil {
		return nil, err
	}

	events := make([]model.PayEvent, 0, len(records))
	for _, raw := range records {
		var rec payEventRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode pay event: %w", err)
		}
		amount, err := parseAmount(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("decode pay event: %w", err)
		}
		events = append(events, model.PayEvent{
			ProjectID: rec.Project.ID,
			Amount:    amount,
			Timestamp: rec.Timestamp,
		})
	}
	return events, nil
}

// ProjectsByID returns the projects with the given subgraph ids.
func (q *Querier) ProjectsByID(ctx context.Context, ids []string) ([]model.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return q.queryProjects(ctx, "ids:"+strings.Join(ids, ","), Where{Key: "id", Op: OpIn, Value: ids})
}

// ProjectsByOwner returns all projects owned by owner.
func (q *Querier) ProjectsByOwner(ctx context.Context, owner string) ([]model.Project, error) {
	if owner == "" {
		return nil, nil
	}
	return q.queryProjects(ctx, "owner:"+owner, Where{Key: "owner", Op: OpIn, Value: []string{owner}})
}

func (q *Querier) queryProjects(ctx context.Context, memoKey string, where ...Where) ([]model.Project, error) {
	if cached, ok := q.memo.Get(memoKey); ok {
		return cached, nil
	}

	records, err := q.client.QueryExhaustive(ctx, &Query{
		Entity: "project",
		Keys:   projectKeys,
		Where:  where,
	})
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(records))
	for _, raw := range records {
		var rec projectRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		balance, err := parseAmount(rec.CurrentBalance)
		if err != nil {
			return nil, fmt.Errorf("decode project %s: %w", rec.ID, err)
		}
		totalPaid, err := parseAmount(rec.TotalPaid)
		if err != nil {
			return nil, fmt.Errorf("decode project %s: %w", rec.ID, err)
		}
		projects = append(projects, model.Project{
			ID:             rec.ID,
			ProjectID:      rec.ProjectID,
			Handle:         rec.Handle,
			Owner:          rec.Owner,
			CreatedAt:      rec.CreatedAt,
			MetadataURI:    rec.MetadataURI,
			CurrentBalance: balance,
			TotalPaid:      totalPaid,
			CV:             rec.CV,
		})
	}

	q.memo.Add(memoKey, projects)
	return projects, nil
}

// ParticipantsOf returns wallet's participation records ordered by balance
// descending.
func (q *Querier) ParticipantsOf(ctx context.Context, wallet string) ([]model.Participant, error) {
	records, err := q.client.QueryExhaustive(ctx, &Query{
		Entity:         "participant",
		Keys:           []string{"wallet", "balance"},
		NestedKeys:     map[string][]string{"project": {"id"}},
		Where:          []Where{{Key: "wallet", Value: wallet}},
		OrderBy:        "balance",
		OrderDirection: "desc",
	})
	if err != nil {
		return nil, err
	}

	participants := make([]model.Participant, 0, len(records))
	for _, raw := range records {
		var rec participantRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode participant: %w", err)
		}
		balance, err := parseAmount(rec.Balance)
		if err != nil {
			return nil, fmt.Errorf("decode participant: %w", err)
		}
		participants = append(participants, model.Participant{
			ProjectID: rec.Project.ID,
			Wallet:    rec.Wallet,
			Balance:   balance,
		})
	}
	return participants, nil
}
