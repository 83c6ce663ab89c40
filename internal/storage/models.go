package storage

type Budget struct {
	Category  string
	Amount    string
	UpdatedAt string
}

type SnapshotMeta struct {
	SyncedAt         string
	TransactionCount int64
}

type Credential struct {
	AccessToken string
	ItemID      string
	UpdatedAt   string
}
