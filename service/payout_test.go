package service

import (
	"testing"

	"parlayz/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newStake(outcome string, amount string) Stake {
	return Stake{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Outcome: outcome,
		Amount:  decimal.RequireFromString(amount),
	}
}

func sumPayouts(payouts []Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return total
}

func TestComputePayouts(t *testing.T) {
	t.Run("two winners split a 300 pot", func(t *testing.T) {
		stakes := []Stake{newStake("Yes", "100"), newStake("Yes", "100"), newStake("No", "100")}

		total, payouts := ComputePayouts(stakes, "Yes")

		assert.True(t, total.Equal(decimal.NewFromInt(300)))
		assert.True(t, payouts[0].IsWinner)
		assert.True(t, payouts[0].Amount.Equal(decimal.NewFromInt(150)))
		assert.True(t, payouts[1].Amount.Equal(decimal.NewFromInt(150)))
		assert.False(t, payouts[2].IsWinner)
		assert.True(t, payouts[2].Amount.IsZero())
		assert.Equal(t, stakes[2].UserID, payouts[2].UserID)
	})

	t.Run("no winners pays nothing", func(t *testing.T) {
		stakes := []Stake{newStake("Yes", "100"), newStake("Yes", "50")}

		total, payouts := ComputePayouts(stakes, "No")

		assert.True(t, total.Equal(decimal.NewFromInt(150)))
		assert.True(t, sumPayouts(payouts).IsZero())
		for _, p := range payouts {
			assert.False(t, p.IsWinner)
		}
	})

	t.Run("unequal stakes still split equally", func(t *testing.T) {
		stakes := []Stake{newStake("A", "10"), newStake("A", "90"), newStake("B", "100")}

		_, payouts := ComputePayouts(stakes, "A")

		assert.True(t, payouts[0].Amount.Equal(decimal.NewFromInt(100)))
		assert.True(t, payouts[1].Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("remainder cents go to earliest winners", func(t *testing.T) {
		stakes := []Stake{
			newStake("Yes", "0.50"),
			newStake("No", "0.50"),
			newStake("Yes", "0.50"),
			newStake("Yes", "0.50"),
		}

		total, payouts := ComputePayouts(stakes, "Yes")

		// 2.00 / 3 = 0.66 each with two leftover cents
		assert.True(t, total.Equal(decimal.RequireFromString("2.00")))
		assert.True(t, payouts[0].Amount.Equal(decimal.RequireFromString("0.67")))
		assert.True(t, payouts[2].Amount.Equal(decimal.RequireFromString("0.67")))
		assert.True(t, payouts[3].Amount.Equal(decimal.RequireFromString("0.66")))
		assert.True(t, sumPayouts(payouts).Equal(total))
	})

	t.Run("empty pot", func(t *testing.T) {
		total, payouts := ComputePayouts(nil, "Yes")
		assert.True(t, total.IsZero())
		assert.Empty(t, payouts)
	})
}

func TestSplitEvenly_ConservesPot(t *testing.T) {
	pots := []string{"0.01", "1.00", "100.00", "333.33", "1000000.07"}
	for _, pot := range pots {
		for n := 1; n <= 13; n++ {
			total := decimal.RequireFromString(pot)
			shares := SplitEvenly(total, n)

			sum := decimal.Zero
			for _, s := range shares {
				assert.True(t, models.IsMoney(s))
				sum = sum.Add(s)
			}
			assert.Truef(t, sum.Equal(total), "pot %s split %d ways summed to %s", pot, n, sum)

			spread := shares[0].Sub(shares[n-1])
			assert.True(t, spread.LessThanOrEqual(models.Cent))
		}
	}

	assert.Nil(t, SplitEvenly(decimal.NewFromInt(10), 0))
}

func TestOfferWinner(t *testing.T) {
	creator := uuid.New()
	taker := uuid.New()
	takerSide := "No"
	offer := &models.P2POffer{
		CreatorID:      creator,
		CreatorOutcome: "Yes",
		TakerID:        &taker,
		TakerOutcome:   &takerSide,
	}

	winner, ok := OfferWinner(offer, "Yes")
	assert.True(t, ok)
	assert.Equal(t, creator, winner)

	winner, ok = OfferWinner(offer, "No")
	assert.True(t, ok)
	assert.Equal(t, taker, winner)

	_, ok = OfferWinner(offer, "Draw")
	assert.False(t, ok)
}
