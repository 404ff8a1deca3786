package models

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeEntryStake      TransactionType = "entry_stake"
	TransactionTypeEntryPayout     TransactionType = "entry_payout"
	TransactionTypeMiniPoolStake   TransactionType = "mini_pool_stake"
	TransactionTypeMiniPoolPayout  TransactionType = "mini_pool_payout"
	TransactionTypeOfferStake      TransactionType = "offer_stake"
	TransactionTypeOfferMatchStake TransactionType = "offer_match_stake"
	TransactionTypeOfferPayout     TransactionType = "offer_payout"
	TransactionTypeOfferRefund     TransactionType = "offer_refund"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeEvent    RelatedType = "event"
	RelatedTypeEntry    RelatedType = "entry"
	RelatedTypeMiniPool RelatedType = "mini_pool"
	RelatedTypeOffer    RelatedType = "p2p_offer"
)
