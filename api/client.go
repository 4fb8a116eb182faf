package api

// API Client-
//
// Files:
//   config.go    - method names and polling constants
//   backend.go   - Backend interface satisfied by *ethclient.Client and test fakes
//   base.go      - Client (RPC session, liveness check)
//   contract.go  - claim contract binding (withdrawTime, requestTokens)
//   receipt.go   - waiting for transaction receipts
//
// Usage:
//   client, err := api.Dial(ctx, rpcURL)               // from base.go
//   info, err := client.CheckConnection(ctx)           // from base.go
//   contract, err := api.LoadContract(addr, abiPath, client.Backend(), logger)
//   unlock, err := contract.WithdrawTime(ctx, account) // from contract.go
//   tx, err := contract.RequestTokens(ctx, key, opts)  // from contract.go
//   receipt, err := api.WaitReceipt(ctx, client.Backend(), tx.Hash(), api.ReceiptPollInterval)
