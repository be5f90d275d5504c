package booking

import "errors"

var (
	ErrValidation                 = errors.New("validation error")
	ErrResponseMessageRequired    = errors.New("declining a booking requires a response message")
	ErrCancellationReasonRequired = errors.New("cancelling a booking requires a reason")
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrNotFound                   = errors.New("booking not found")
	// ErrPaymentAmountMismatch: the amount captured on the payment intent
	// does not equal the booking's total cost.
	ErrPaymentAmountMismatch = errors.New("payment amount does not match booking total")
	// ErrRefundNotRetryable: a refund retry requires a cancelled booking
	// whose previous refund attempt failed.
	ErrRefundNotRetryable = errors.New("booking has no failed refund to retry")
	// ErrWithdrawalNotSupported: a customer pulling back a pending request
	// is not currently a supported operation, pending product clarification.
	ErrWithdrawalNotSupported = errors.New("withdrawing a pending booking is not supported")
)
