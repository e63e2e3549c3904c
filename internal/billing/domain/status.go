package billing

// Status represents the payment lifecycle state.
type Status string

const (
	StatusUnpaid     Status = "unpaid"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
)

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusUnpaid, StatusProcessing, StatusPaid:
		return Status(value), true
	default:
		return "", false
	}
}

// StatusFromLegacyCode converts the numeric string codes used by older
// records ("1" unpaid, "2" processing, "3" paid).
func StatusFromLegacyCode(code string) (Status, bool) {
	switch code {
	case "1":
		return StatusUnpaid, true
	case "2":
		return StatusProcessing, true
	case "3":
		return StatusPaid, true
	default:
		return "", false
	}
}

// LegacyCode returns the numeric string code for older consumers.
func (s Status) LegacyCode() string {
	switch s {
	case StatusUnpaid:
		return "1"
	case StatusProcessing:
		return "2"
	case StatusPaid:
		return "3"
	default:
		return ""
	}
}

// CanTransition reports whether moving from s to target is permitted.
// Paid is terminal; unpaid may settle directly without the processing
// marker.
func (s Status) CanTransition(target Status) bool {
	switch s {
	case StatusUnpaid:
		return target == StatusProcessing || target == StatusPaid
	case StatusProcessing:
		return target == StatusPaid
	default:
		return false
	}
}
