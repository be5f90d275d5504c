package payment

import "cleanmarket/internal/domain"

type CreateIntentRequest struct {
	Amount             int64             `json:"amount" binding:"required,gt=0"`
	Metadata           map[string]string `json:"metadata"`
	ConnectedAccountID string            `json:"connected_account_id"`
	PlatformFeeAmount  int64             `json:"platform_fee_amount"`
}

// IntentResult is handed to the payer's browser to complete the charge.
type IntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	UsingConnect    bool   `json:"using_connect"`
}

// Confirmation is what the processor reports about a completed charge: the
// captured amount and where the funds settled, read back from the intent
// itself rather than trusted from the caller.
type Confirmation struct {
	PaymentIntentID string            `json:"payment_intent_id"`
	Amount          int64             `json:"amount"`
	CardLast4       string            `json:"card_last4,omitempty"`
	CardBrand       string            `json:"card_brand,omitempty"`
	Settlement      domain.Settlement `json:"settlement"`
}

type RefundResult struct {
	RefundID string `json:"refund_id"`
}
