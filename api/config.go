package api

import "time"

// claim contract methods
const (
	MethodWithdrawTime  = "withdrawTime"
	MethodRequestTokens = "requestTokens"
)

const (
	// ReceiptPollInterval is how often a pending transaction is checked
	ReceiptPollInterval = 2 * time.Second

	// ConnectionCheckTimeout bounds the liveness check
	ConnectionCheckTimeout = 10 * time.Second
)
