package dto

import (
	"fmt"
	"math/big"

	"fundStatApp/internal/domain/model"
)

// PayEventDTO is the wire form of a payment event on the feed. The amount
// travels as a decimal string in the smallest protocol unit. ID is a
// feed-level identifier used for deduplication and commit tracking.
type PayEventDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// ToModel converts the DTO to a domain model.
func (d *PayEventDTO) ToModel() (*model.PayEvent, error) {
	amount, ok := new(big.Int).SetString(d.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("pay event %s: invalid amount %q", d.ID, d.Amount)
	}
	return &model.PayEvent{
		ProjectID: d.ProjectID,
		Amount:    amount,
		Timestamp: d.Timestamp,
	}, nil
}

// FromModel creates a DTO from a domain model.
func FromModel(id string, ev *model.PayEvent) *PayEventDTO {
	return &PayEventDTO{
		ID:        id,
		ProjectID: ev.ProjectID,
		Amount:    ev.Amount.String(),
		Timestamp: ev.Timestamp,
	}
}
