package queue

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	DepositEventType  EventType = "vault.deposit.v1"
	WithdrawEventType EventType = "vault.withdraw.v1"
)

// VaultEvent is the structured record emitted after every committed deposit
// or withdrawal. External collaborators reconstruct transaction history from
// these, so the schema is append-only.
type VaultEvent struct {
	EventType          EventType `json:"event_type"`
	Depositor          string    `json:"depositor"`
	VaultAddress       string    `json:"vault_address"`
	PositionAddress    string    `json:"position_address"`
	AssetID            string    `json:"asset_id"`
	Amount             uint64    `json:"amount"`
	ResultingPrincipal uint64    `json:"resulting_principal"`
	Timestamp          int64     `json:"timestamp"`
}
