package utils

import (
	"math/big"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fundStatApp/internal/domain/model"
)

// PayEventGenerator provides methods to generate test payment events.
type PayEventGenerator struct{}

func NewPayEventGenerator() *PayEventGenerator {
	return &PayEventGenerator{}
}

// oneEth in wei; generated amounts are fractions/multiples of this.
var oneEth = big.NewInt(1_000_000_000_000_000_000)

// GeneratePayEvents creates count test events spread over sample projects.
func (g *PayEventGenerator) GeneratePayEvents(count int) []*model.PayEvent {
	events := make([]*model.PayEvent, count)
	for i := 0; i < count; i++ {
		amount := new(big.Int).Mul(oneEth, big.NewInt(int64(1+i%10)))
		events[i] = &model.PayEvent{
			ProjectID: "2-" + strconv.Itoa(1+i%20),
			Amount:    amount,
			Timestamp: time.Now().Unix(),
		}
	}
	return events
}

// GenerateRandomPayEvents creates count events with randomized amounts.
func (g *PayEventGenerator) GenerateRandomPayEvents(count int) []*model.PayEvent {
	events := make([]*model.PayEvent, count)
	for i := 0; i < count; i++ {
		// between 0.001 and ~5 ETH in wei
		milli := big.NewInt(int64(1 + rand.Intn(5000)))
		amount := new(big.Int).Mul(milli, new(big.Int).Div(oneEth, big.NewInt(1000)))
		events[i] = &model.PayEvent{
			ProjectID: "2-" + strconv.Itoa(1+rand.Intn(20)),
			Amount:    amount,
			Timestamp: time.Now().Unix(),
		}
	}
	return events
}

// NewFeedID returns a fresh feed-level event id.
func NewFeedID() string {
	return uuid.New().String()
}
