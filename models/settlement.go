package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PotResult summarizes how one pot (the main pool or a mini-pool) was paid out
type PotResult struct {
	PotID       uuid.UUID                     `json:"pot_id"`
	TotalPot    decimal.Decimal               `json:"total_pot"`
	WinnerCount int                           `json:"winner_count"`
	LoserCount  int                           `json:"loser_count"`
	Payouts     map[uuid.UUID]decimal.Decimal `json:"payouts"`
}

// OfferResult summarizes how one P2P offer was resolved at settlement
type OfferResult struct {
	OfferID  uuid.UUID       `json:"offer_id"`
	Status   OfferStatus     `json:"status"`
	WinnerID *uuid.UUID      `json:"winner_id,omitempty"`
	Pot      decimal.Decimal `json:"pot"`
	Refunded bool            `json:"refunded"`
}

// SettlementResult is the outcome of settling an event
type SettlementResult struct {
	Event     *Event        `json:"event"`
	MainPool  PotResult     `json:"main_pool"`
	MiniPools []PotResult   `json:"mini_pools"`
	Offers    []OfferResult `json:"offers"`
}

// TotalPaid sums every credit issued by the settlement
func (r *SettlementResult) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.MainPool.Payouts {
		total = total.Add(p)
	}
	for _, mp := range r.MiniPools {
		for _, p := range mp.Payouts {
			total = total.Add(p)
		}
	}
	for _, o := range r.Offers {
		total = total.Add(o.Pot)
	}
	return total
}
