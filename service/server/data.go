package server

import "time"

// transactionRecord is the mirror's record shape. Amount is a decimal
// string so consumers can convert it exactly; the mirror itself never
// does arithmetic beyond the display-only summary.
type transactionRecord struct {
	ID        int       `json:"id"`
	Donor     string    `json:"donor"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TxHash    string    `json:"txHash"`
}

// seedTransactions is the fixed dataset the mirror serves. The mirror is
// a read-only collaborator: there is no write path and no persistence.
var seedTransactions = []transactionRecord{
	{
		ID:        1,
		Donor:     "0x742d35Cc6634C0532925a3b844Bc9e7595f8bE21",
		Amount:    "0.5",
		Currency:  "ETH",
		Message:   "Hope this helps someone in need",
		Timestamp: time.Date(2026, 1, 25, 10, 30, 0, 0, time.UTC),
		TxHash:    "0x8a7d56e92f6bc8b6a8f8b6c8d8e8f8a8b8c8d8e8f8a8b8c8d8e8f8a8b8c8d8e8",
	},
	{
		ID:        2,
		Donor:     "0x892d35Cc6634C0532925a3b844Bc9e7595f8bE32",
		Amount:    "0.25",
		Currency:  "ETH",
		Message:   "A small donation for a good cause",
		Timestamp: time.Date(2026, 1, 26, 14, 45, 0, 0, time.UTC),
		TxHash:    "0x9b8e67f03a7cd9c7b9a9c7d9e9f9b9c9d9e9f9b9c9d9e9f9b9c9d9e9f9b9c9d9",
	},
	{
		ID:        3,
		Donor:     "0x1234567890AbCdEf1234567890AbCdEf12345678",
		Amount:    "1.0",
		Currency:  "ETH",
		Message:   "Good luck with the project!",
		Timestamp: time.Date(2026, 1, 27, 9, 15, 0, 0, time.UTC),
		TxHash:    "0xabc123def456abc123def456abc123def456abc123def456abc123def456abc1",
	},
	{
		ID:        4,
		Donor:     "0xAbCdEf1234567890AbCdEf1234567890AbCdEf12",
		Amount:    "0.1",
		Currency:  "ETH",
		Message:   "Keep building!",
		Timestamp: time.Date(2026, 1, 28, 16, 20, 0, 0, time.UTC),
		TxHash:    "0xdef789abc012def789abc012def789abc012def789abc012def789abc012def7",
	},
	{
		ID:        5,
		Donor:     "0x5678901234AbCdEf5678901234AbCdEf56789012",
		Amount:    "0.75",
		Currency:  "ETH",
		Message:   "My small contribution",
		Timestamp: time.Date(2026, 1, 29, 8, 0, 0, 0, time.UTC),
		TxHash:    "0xabc345def678abc345def678abc345def678abc345def678abc345def678abc3",
	},
}
