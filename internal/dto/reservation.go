package dto

type ReservationStatus string

const (
	ReservationAllSuccess ReservationStatus = "ALL_SUCCESS"
	ReservationPartial    ReservationStatus = "PARTIAL"
	ReservationAllFailed  ReservationStatus = "ALL_FAILED"
)

type FailureReason string

const (
	ReasonNotFound              FailureReason = "NOT_FOUND"
	ReasonOutOfStock            FailureReason = "OUT_OF_STOCK"
	ReasonInsufficientAvailable FailureReason = "INSUFFICIENT_AVAILABLE"
	ReasonProductInactive       FailureReason = "PRODUCT_INACTIVE"
	ReasonInvalidLine           FailureReason = "INVALID_LINE"
)

type ItemSuccess struct {
	ItemID    string
	ProductID string
	Quantity  int
}

type ItemFailure struct {
	ItemID    string
	ProductID string
	Quantity  int
	Reason    FailureReason
}

type ReservationResult struct {
	Status    ReservationStatus
	OrderID   string
	Successes []ItemSuccess
	Failures  []ItemFailure
}

// Finish derives Status from the collected successes and failures.
func (r *ReservationResult) Finish() *ReservationResult {
	switch {
	case len(r.Successes) == 0 && len(r.Failures) > 0:
		r.Status = ReservationAllFailed
	case len(r.Failures) > 0:
		r.Status = ReservationPartial
	default:
		r.Status = ReservationAllSuccess
	}
	return r
}
