package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusCooking   Status = "cooking"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// The kitchen accepts orders immediately, so the common path starts at
// cooking. Cancel/refund branch off the two in-flight states only.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusCooking: true, StatusCancelled: true},
	StatusCooking:   {StatusReady: true, StatusCancelled: true, StatusRefunded: true},
	StatusReady:     {StatusDelivered: true, StatusCancelled: true, StatusRefunded: true},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodWallet PaymentMethod = "wallet"
	MethodPoints PaymentMethod = "points"
	MethodUPI    PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodWallet, MethodPoints, MethodUPI:
		return true
	}
	return false
}

// External reports whether settlement happens outside the platform; such
// methods carry no local balance to check or debit.
func (m PaymentMethod) External() bool {
	return m == MethodUPI
}
