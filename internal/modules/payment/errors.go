package payment

import "errors"

var (
	// ErrPaymentInit means the processor rejected the intent request
	// (invalid amount, misconfigured account).
	ErrPaymentInit = errors.New("payment initialization failed")
	// ErrPaymentDeclined means the charge did not go through; no booking
	// may be created on this path.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrRefund means there was no capturable payment to refund. Reported,
	// not retried; cancellation proceeds regardless.
	ErrRefund = errors.New("refund failed")
)
