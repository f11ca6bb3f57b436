package domain

import "regexp"

type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "DEPOSIT"
	TransactionTypeTransferDebit  TransactionType = "TRANSFER_DEBIT"
	TransactionTypeTransferCredit TransactionType = "TRANSFER_CREDIT"
)

// Status is shared by ledger transactions and payment records.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Ledger event names published after commit.
const (
	EventTransferDebit  = "transfer.debit"
	EventTransferCredit = "transfer.credit"
	EventDepositSettled = "deposit.settled"
	EventDepositFailed  = "deposit.failed"
)

const (
	WalletNumberPrefix = "45"
	WalletNumberLength = 13
)

var walletNumberPattern = regexp.MustCompile(`^45\d{11}$`)

// ValidWalletNumber reports whether s is a well-formed public wallet number.
func ValidWalletNumber(s string) bool {
	return walletNumberPattern.MatchString(s)
}
