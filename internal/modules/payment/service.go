package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleanmarket/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
)

// Service bridges booking amounts to Stripe without leaking processor
// types to callers. Amounts are integer pence throughout.
type Service struct {
	log zerolog.Logger
}

func NewService(secretKey string, log zerolog.Logger) *Service {
	stripe.Key = secretKey
	return &Service{log: log}
}

// CreateIntent requests a payment intent. With a connected account id the
// funds settle to that account minus the platform's application fee;
// without one the intent settles to the platform account and payout to
// the business happens manually downstream.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrPaymentInit)
	}

	params := buildIntentParams(req)
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		s.log.Error().Err(err).Int64("amount", req.Amount).Msg("stripe payment intent creation failed")
		return nil, fmt.Errorf("%w: %s", ErrPaymentInit, stripeMessage(err))
	}

	usingConnect := req.ConnectedAccountID != ""
	s.log.Info().
		Str("payment_intent_id", intent.ID).
		Int64("amount", req.Amount).
		Bool("using_connect", usingConnect).
		Msg("payment intent created")

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		UsingConnect:    usingConnect,
	}, nil
}

// Confirm verifies the charge behind a client secret after the payer has
// completed it browser-side. Anything short of a captured (or capturable)
// intent is a decline; the returned amount and settlement come from the
// intent, not from the caller.
func (s *Service) Confirm(ctx context.Context, clientSecret string) (*Confirmation, error) {
	intentID, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, stripeMessage(err))
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
	default:
		reason := "payment not completed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			reason = intent.LastPaymentError.Msg
		}
		s.log.Warn().
			Str("payment_intent_id", intent.ID).
			Str("status", string(intent.Status)).
			Msg("payment confirmation rejected")
		return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, reason)
	}

	conf := &Confirmation{
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Settlement:      settlementFrom(intent),
	}
	if intent.LatestCharge != nil && intent.LatestCharge.PaymentMethodDetails != nil &&
		intent.LatestCharge.PaymentMethodDetails.Card != nil {
		card := intent.LatestCharge.PaymentMethodDetails.Card
		conf.CardLast4 = card.Last4
		conf.CardBrand = string(card.Brand)
	}
	return conf, nil
}

// settlementFrom reads where the funds settled off the intent itself, so
// the refund path never re-derives it from configuration.
func settlementFrom(intent *stripe.PaymentIntent) domain.Settlement {
	if intent.TransferData != nil && intent.TransferData.Destination != nil {
		return domain.Settlement{
			Mode:      domain.SettlementConnected,
			AccountID: intent.TransferData.Destination.ID,
		}
	}
	return domain.Settlement{Mode: domain.SettlementPlatform}
}

// Refund returns the full captured amount to the payer. For connected
// settlement the transfer to the business is reversed and the application
// fee refunded, so neither side keeps money from a cancelled booking.
func (s *Service) Refund(ctx context.Context, paymentIntentID string, settlement domain.Settlement) (*RefundResult, error) {
	if paymentIntentID == "" {
		return nil, fmt.Errorf("%w: no capturable payment", ErrRefund)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if settlement.Mode == domain.SettlementConnected {
		params.ReverseTransfer = stripe.Bool(true)
		params.RefundApplicationFee = stripe.Bool(true)
	}

	r, err := refund.New(params)
	if err != nil {
		s.log.Error().Err(err).Str("payment_intent_id", paymentIntentID).Msg("stripe refund failed")
		return nil, fmt.Errorf("%w: %s", ErrRefund, stripeMessage(err))
	}

	s.log.Info().
		Str("payment_intent_id", paymentIntentID).
		Str("refund_id", r.ID).
		Msg("refund issued")
	return &RefundResult{RefundID: r.ID}, nil
}

func buildIntentParams(req CreateIntentRequest) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(string(stripe.CurrencyGBP)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: req.Metadata,
	}
	if req.ConnectedAccountID != "" {
		params.ApplicationFeeAmount = stripe.Int64(req.PlatformFeeAmount)
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.ConnectedAccountID),
		}
	}
	return params
}

// intentIDFromSecret recovers the intent id from a client secret of the
// form pi_xxx_secret_yyy.
func intentIDFromSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret")
	if !found || id == "" {
		return "", errors.New("malformed client secret")
	}
	return id, nil
}

func stripeMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
