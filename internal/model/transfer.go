package model

// Counterparty is one side of a transfer: a raw address plus the resolved
// Arkham label when the platform knows one.
type Counterparty struct {
	Address string
	Label   string // empty when unresolved
}

// Transfer is a single on-chain transfer reported by Arkham.
// It is ephemeral: evaluated once, then only its hash is retained for dedup.
type Transfer struct {
	TransactionHash string
	TokenSymbol     string
	TokenAmount     float64
	ValueUSD        float64
	BlockTime       string
	From            Counterparty
	To              Counterparty
}
