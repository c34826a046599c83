package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID               string          `json:"id"`
	FullName         string          `json:"fullName"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	PasswordHash     string          `json:"password"`
	AccountNumber    string          `json:"accountNumber"`
	Balance          decimal.Decimal `json:"balance"`
	Status           string          `json:"status"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	CreatedAt        time.Time       `json:"createdAt"`
	BannedAt         *time.Time      `json:"bannedAt,omitempty"`
	BannedBy         string          `json:"bannedBy,omitempty"`
	StatusUpdatedAt  *time.Time      `json:"statusUpdatedAt,omitempty"`
	StatusUpdatedBy  string          `json:"statusUpdatedBy,omitempty"`
}

// UserView is the sanitized projection of a User returned to clients.
type UserView struct {
	ID               string          `json:"id"`
	FullName         string          `json:"fullName"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	AccountNumber    string          `json:"accountNumber"`
	Balance          decimal.Decimal `json:"balance"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
}

func (u User) View() UserView {
	return UserView{
		ID:               u.ID,
		FullName:         u.FullName,
		Username:         u.Username,
		Email:            u.Email,
		AccountNumber:    u.AccountNumber,
		Balance:          u.Balance,
		Status:           u.Status,
		CreatedAt:        u.CreatedAt,
		TotalDeposits:    u.TotalDeposits,
		TotalWithdrawals: u.TotalWithdrawals,
	}
}

// AccountSummary is all a counterparty may learn about another account.
type AccountSummary struct {
	FullName      string `json:"fullName"`
	AccountNumber string `json:"accountNumber"`
}

type Transaction struct {
	ID                     string           `json:"id"`
	UserID                 string           `json:"userId"`
	Type                   string           `json:"type"`
	Amount                 decimal.Decimal  `json:"amount"`
	Method                 string           `json:"method,omitempty"`
	Status                 string           `json:"status"`
	Timestamp              time.Time        `json:"timestamp"`
	Description            string           `json:"description"`
	RecipientName          string           `json:"recipientName,omitempty"`
	RecipientAccountNumber string           `json:"recipientAccountNumber,omitempty"`
	SenderName             string           `json:"senderName,omitempty"`
	SenderAccountNumber    string           `json:"senderAccountNumber,omitempty"`
	AdminID                string           `json:"adminId,omitempty"`
	AdminEmail             string           `json:"adminEmail,omitempty"`
	OldBalance             *decimal.Decimal `json:"oldBalance,omitempty"`
	NewBalance             *decimal.Decimal `json:"newBalance,omitempty"`
}

type Receipt struct {
	ID                     string          `json:"id"`
	TransactionID          string          `json:"transactionId"`
	UserID                 string          `json:"userId"`
	Type                   string          `json:"type"`
	Amount                 decimal.Decimal `json:"amount"`
	Timestamp              time.Time       `json:"timestamp"`
	Status                 string          `json:"status"`
	ReferenceCode          string          `json:"referenceCode"`
	Recipient              string          `json:"recipient,omitempty"`
	RecipientAccountNumber string          `json:"recipientAccountNumber,omitempty"`
}
