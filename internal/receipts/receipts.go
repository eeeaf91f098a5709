// Package receipts provides cryptographic receipt signing for bridge actions.
//
// Every completed action (publish, pricing attachment, permission, compute,
// purchase) produces a signed receipt that callers can independently verify
// and query later.
package receipts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrReceiptNotFound = errors.New("receipts: not found")
	ErrSigningDisabled = errors.New("receipts: signing disabled (no HMAC secret configured)")
)

// Receipt statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Receipt is a cryptographically signed proof that the bridge executed an
// action for an account.
type Receipt struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`             // action kind from the request union
	Reference   string    `json:"reference"`          // DID, exchange id, or datatoken address
	Account     string    `json:"account"`            // funding account that executed the action
	TxHash      string    `json:"txHash,omitempty"`   // last on-chain transaction, if any
	Status      string    `json:"status"`             // "completed" or "failed"
	PayloadHash string    `json:"payloadHash"`        // SHA-256 of canonical payload
	Signature   string    `json:"signature"`          // HMAC-SHA256 signature
	IssuedAt    time.Time `json:"issuedAt"`           // when the receipt was signed
	ExpiresAt   time.Time `json:"expiresAt"`          // when the signature expires
	Metadata    string    `json:"metadata,omitempty"` // optional extra context
	CreatedAt   time.Time `json:"createdAt"`
}

// IssueRequest is the input for creating a receipt.
type IssueRequest struct {
	Action    string
	Reference string
	Account   string
	TxHash    string
	Status    string
	Metadata  string
}

// VerifyRequest is the input for verifying a receipt signature.
type VerifyRequest struct {
	ReceiptID string `json:"receiptId" binding:"required"`
}

// VerifyResponse is the result of receipt verification.
type VerifyResponse struct {
	Valid     bool   `json:"valid"`
	ReceiptID string `json:"receiptId"`
	Expired   bool   `json:"expired,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Store persists receipt data.
type Store interface {
	Create(ctx context.Context, receipt *Receipt) error
	Get(ctx context.Context, id string) (*Receipt, error)
	ListByAccount(ctx context.Context, account string, limit int) ([]*Receipt, error)
	ListByReference(ctx context.Context, reference string) ([]*Receipt, error)
}

// receiptPayload is the canonical struct signed by HMAC.
// Field order must be deterministic (JSON marshalling of struct is by field order).
type receiptPayload struct {
	Account   string `json:"account"`
	Action    string `json:"action"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	TxHash    string `json:"txHash"`
}
