package ledger

import "errors"

// Ledger errors returned to callers as typed failures.
var (
	// ErrInsufficientCredits indicates the aggregate balance cannot cover a cost.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrLedgerInconsistency indicates the aggregate balance and active source
	// accounting disagree. Treated as a defect to alert on, never patched.
	ErrLedgerInconsistency = errors.New("ledger inconsistency: balance covers cost but active sources do not")
	// ErrRefundNotEligible indicates a source fails refund eligibility checks.
	ErrRefundNotEligible = errors.New("refund not eligible")
	// ErrSourceNotFound indicates the credit source does not exist or is not owned by the user.
	ErrSourceNotFound = errors.New("credit source not found")
	// ErrRequestNotFound indicates the refund request does not exist.
	ErrRequestNotFound = errors.New("refund request not found")
	// ErrRequestResolved indicates the refund request was already approved or rejected.
	ErrRequestResolved = errors.New("refund request already resolved")
)

// Refund ineligibility reasons wrapped by ErrRefundNotEligible.
var (
	// ErrSourcePartiallyUsed means credits were already drawn from the source.
	ErrSourcePartiallyUsed = errors.New("credits already used")
	// ErrRefundWindowExpired means the 7-day refund window has passed.
	ErrRefundWindowExpired = errors.New("refund window expired")
	// ErrSourceNotActive means the source is not in the active state.
	ErrSourceNotActive = errors.New("source not active")
)
