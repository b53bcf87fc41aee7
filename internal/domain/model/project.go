package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// Project is a snapshot of a fundable project as indexed by the subgraph.
// The canonical copy lives in the indexer; instances here are read-only.
type Project struct {
	ID             string   // subgraph entity id, e.g. "2-123"
	ProjectID      uint64   // on-chain numeric id
	Handle         string   // optional human handle
	Owner          string   // owner address
	CreatedAt      int64    // unix timestamp
	MetadataURI    string   // off-chain metadata pointer
	CurrentBalance *big.Int // smallest protocol unit
	TotalPaid      *big.Int // cumulative paid-in, smallest protocol unit
	CV             string   // protocol version tag
}

// PayEvent is a single contribution to a project.
type PayEvent struct {
	ProjectID string   // subgraph entity id of the target project
	Amount    *big.Int // non-negative, smallest protocol unit
	Timestamp int64    // unix seconds
}

// Participant records a wallet's stake in a project.
type Participant struct {
	ProjectID string
	Wallet    string
	Balance   *big.Int
}

// ProjectStats accumulates payment activity for one project over a
// trailing window. Built once per aggregation pass, never mutated after.
type ProjectStats struct {
	TrendingVolume *big.Int
	PaymentsCount  int
}

// TrendingProject is a Project extended with its ranking data.
// TrendingScore is nil when the project could not be scored.
type TrendingProject struct {
	Project
	TrendingScore         *big.Int
	TrendingVolume        *big.Int
	TrendingPaymentsCount int
}

// trendingProjectJSON is the wire form used for cache records and API
// responses. Big integers travel as decimal strings, subgraph style.
type trendingProjectJSON struct {
	ID                    string `json:"id"`
	ProjectID             uint64 `json:"projectId"`
	Handle                string `json:"handle,omitempty"`
	Owner                 string `json:"owner"`
	CreatedAt             int64  `json:"createdAt"`
	MetadataURI           string `json:"metadataUri,omitempty"`
	CurrentBalance        string `json:"currentBalance,omitempty"`
	TotalPaid             string `json:"totalPaid,omitempty"`
	CV                    string `json:"cv,omitempty"`
	TrendingScore         string `json:"trendingScore,omitempty"`
	TrendingVolume        string `json:"trendingVolume,omitempty"`
	TrendingPaymentsCount int    `json:"trendingPaymentsCount"`
}

func bigToString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func bigFromString(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid big integer %q", s)
	}
	return v, nil
}

func (p TrendingProject) MarshalJSON() ([]byte, error) {
	return json.Marshal(trendingProjectJSON{
		ID:                    p.ID,
		ProjectID:             p.ProjectID,
		Handle:                p.Handle,
		Owner:                 p.Owner,
		CreatedAt:             p.CreatedAt,
		MetadataURI:           p.MetadataURI,
		CurrentBalance:        bigToString(p.CurrentBalance),
		TotalPaid:             bigToString(p.TotalPaid),
		CV:                    p.CV,
		TrendingScore:         bigToString(p.TrendingScore),
		TrendingVolume:        bigToString(p.TrendingVolume),
		TrendingPaymentsCount: p.TrendingPaymentsCount,
	})
}

func (p *TrendingProject) UnmarshalJSON(data []byte) error {
	var raw trendingProjectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	balance, err := bigFromString(raw.CurrentBalance)
	if err != nil {
		return fmt.Errorf("currentBalance: %w", err)
	}
	totalPaid, err := bigFromString(raw.TotalPaid)
	if err != nil {
		return fmt.Errorf("totalPaid: %w", err)
	}
	score, err := bigFromString(raw.TrendingScore)
	if err != nil {
		return fmt.Errorf("trendingScore: %w", err)
	}
	volume, err := bigFromString(raw.TrendingVolume)
	if err != nil {
		return fmt.Errorf("trendingVolume: %w", err)
	}

	*p = TrendingProject{
		Project: Project{
			ID:             raw.ID,
			ProjectID:      raw.ProjectID,
			Handle:         raw.Handle,
			Owner:          raw.Owner,
			CreatedAt:      raw.CreatedAt,
			MetadataURI:    raw.MetadataURI,
			CurrentBalance: balance,
			TotalPaid:      totalPaid,
			CV:             raw.CV,
		},
		TrendingScore:         score,
		TrendingVolume:        volume,
		TrendingPaymentsCount: raw.TrendingPaymentsCount,
	}
	return nil
}

// ProjectWindowStats holds rolling payment statistics for one project,
// maintained by the live event feed.
type ProjectWindowStats struct {
	ProjectID  string
	Volume24H  *big.Int
	Volume7D   *big.Int
	Count24H   int
	Count7D    int
	LastUpdate time.Time
}

type projectWindowStatsJSON struct {
	ProjectID  string    `json:"projectId"`
	Volume24H  string    `json:"volume24h"`
	Volume7D   string    `json:"volume7d"`
	Count24H   int       `json:"count24h"`
	Count7D    int       `json:"count7d"`
	LastUpdate time.Time `json:"lastUpdate"`
}

func (s ProjectWindowStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(projectWindowStatsJSON{
		ProjectID:  s.ProjectID,
		Volume24H:  bigToString(s.Volume24H),
		Volume7D:   bigToString(s.Volume7D),
		Count24H:   s.Count24H,
		Count7D:    s.Count7D,
		LastUpdate: s.LastUpdate,
	})
}

func (s *ProjectWindowStats) UnmarshalJSON(data []byte) error {
	var raw projectWindowStatsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	vol24, err := bigFromString(raw.Volume24H)
	if err != nil {
		return fmt.Errorf("volume24h: %w", err)
	}
	vol7d, err := bigFromString(raw.Volume7D)
	if err != nil {
		return fmt.Errorf("volume7d: %w", err)
	}
	*s = ProjectWindowStats{
		ProjectID:  raw.ProjectID,
		Volume24H:  vol24,
		Volume7D:   vol7d,
		Count24H:   raw.Count24H,
		Count7D:    raw.Count7D,
		LastUpdate: raw.LastUpdate,
	}
	return nil
}
