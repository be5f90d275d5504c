package money

// All amounts are integer pence. The platform keeps a fixed 15% commission
// of every booking's gross; the business receives the remainder, so the two
// shares always sum to the gross exactly.

const (
	// CommissionNumerator / CommissionDenominator == 15%.
	CommissionNumerator   = 15
	CommissionDenominator = 100
)

// PlatformFee returns the platform's share of a gross amount, rounded
// half-up to the nearest penny. Callers must reject negative input before
// invoking; behaviour for gross < 0 is undefined.
func PlatformFee(gross int64) int64 {
	return (gross*CommissionNumerator + CommissionDenominator/2) / CommissionDenominator
}

// BusinessEarnings returns the business's share: the exact remainder after
// the platform fee.
func BusinessEarnings(gross int64) int64 {
	return gross - PlatformFee(gross)
}

// Split returns both shares of a gross amount.
func Split(gross int64) (platformFee, businessEarnings int64) {
	platformFee = PlatformFee(gross)
	return platformFee, gross - platformFee
}
