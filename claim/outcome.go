package claim

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// UnlockTimeLayout renders unlock times as DD-Mon-YYYY (HH:MM)
const UnlockTimeLayout = "02-Jan-2006 (15:04)"

// Status is where an address ended up after one pass
type Status int

const (
	// StatusUnknown: the address has not been processed
	StatusUnknown Status = iota
	// StatusSubmitted: eligible, transaction sent and a receipt came back
	StatusSubmitted
	// StatusEligible: eligible and a key is on file (check mode only)
	StatusEligible
	// StatusNotYetEligible: withdrawTime returned a future unlock time
	StatusNotYetEligible
	// StatusMissingCredential: eligible but the accounts file has no key for it
	StatusMissingCredential
	// StatusFailed: any error while checking or claiming
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusEligible:
		return "eligible"
	case StatusNotYetEligible:
		return "not yet eligible"
	case StatusMissingCredential:
		return "missing credential"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single result recorded for one listed address
type Outcome struct {
	Index   int    // 1-based position in the address list
	Address string // as listed

	Status     Status
	UnlockTime time.Time

	TxHash        common.Hash
	ExplorerURL   string
	ReceiptStatus uint64
	BlockNumber   *big.Int

	Err error
}

// Submitted reports whether a transaction was sent for this address, even if
// its receipt never arrived
func (o Outcome) Submitted() bool {
	return o.TxHash != (common.Hash{})
}

// UnlockString formats the unlock time in local time
func (o Outcome) UnlockString() string {
	return o.UnlockTime.Local().Format(UnlockTimeLayout)
}

// Report collects the outcomes of a run in address-list order
type Report struct {
	Outcomes []Outcome
}

// Count returns how many addresses ended with status
func (r *Report) Count(status Status) int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// Transactions returns how many transactions were sent
func (r *Report) Transactions() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Submitted() {
			n++
		}
	}
	return n
}
