package domain

const (
	StatusActive  = "Active"
	StatusPending = "Pending"
	StatusFailed  = "Failed"
	StatusBanned  = "Banned"

	TxStatusSuccessful = "Successful"
	TxStatusPending    = "Pending"
	TxStatusFailed     = "Failed"

	TxTypeDeposit          = "deposit"
	TxTypeWithdrawal       = "withdrawal"
	TxTypeTransferOut      = "transfer_out"
	TxTypeTransferIn       = "transfer_in"
	TxTypeAdminDeposit     = "admin_deposit"
	TxTypeAdminBalanceEdit = "admin_balance_edit"

	TransferOutSuffix = "_OUT"
	TransferInSuffix  = "_IN"

	ReceiptDeposit    = "Deposit Receipt"
	ReceiptWithdrawal = "Withdrawal Receipt"
	ReceiptTransfer   = "Transfer Receipt"

	MethodCard = "Card"

	RoleAdmin = "admin"
	RoleUser  = "user"

	// AdminSubject is the token subject carried by operator sessions.
	AdminSubject = "admin"

	SupportMessage = "CONTACT SUPPORT TO COMPLETE DEPOSIT"
)

// AssignableStatuses are the statuses an operator may set directly.
// Banned is only reachable through ban/unban.
var AssignableStatuses = map[string]struct{}{
	StatusActive:  {},
	StatusPending: {},
	StatusFailed:  {},
}

// IsStatusBlocked reports whether money movement is recorded but not applied
// for an account in the given status.
func IsStatusBlocked(status string, blockBanned bool) bool {
	switch status {
	case StatusPending, StatusFailed:
		return true
	case StatusBanned:
		return blockBanned
	default:
		return false
	}
}

// BlockedTxStatus is the journal status of an attempt blocked by the account
// status. Banned accounts have no transaction status of their own and record
// Failed.
func BlockedTxStatus(accountStatus string) string {
	if accountStatus == StatusPending {
		return TxStatusPending
	}
	return TxStatusFailed
}

// ReceiptLabel maps a transaction type to its human readable receipt type.
func ReceiptLabel(txType string) string {
	switch txType {
	case TxTypeDeposit:
		return ReceiptDeposit
	case TxTypeWithdrawal:
		return ReceiptWithdrawal
	case TxTypeTransferOut, TxTypeTransferIn:
		return ReceiptTransfer
	default:
		return "Receipt"
	}
}
