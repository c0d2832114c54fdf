package finance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"voko-backend/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Gateway is the capability the engine needs from the iDeal payment
// provider: start a transaction, fetch its status. The wire format beyond
// that is the provider's business.
type Gateway interface {
	CreateTransaction(ctx context.Context, amount decimal.Decimal, bank, description, reference string) (*GatewayTransaction, error)
	TransactionStatus(ctx context.Context, transactionID string) (*GatewayStatus, error)
}

type GatewayTransaction struct {
	TransactionID string `json:"transaction_id"`
	IssuerURL     string `json:"issuer_url"`
}

type GatewayStatus struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // Success, Cancelled, Expired, Failure, Open
	Checksum      string `json:"checksum"`
}

// Paid reports whether the gateway settled the transaction. A checksum
// mismatch means a tampered or corrupt response and never counts as paid.
func (s *GatewayStatus) Paid(secret string) bool {
	return s.Status == "Success" && validChecksum(secret, s.TransactionID, s.Status, s.Checksum)
}

type idealGateway struct {
	client    *resty.Client
	merchant  string
	secret    string
	returnURL string
}

func NewGateway(cfg *config.Config) Gateway {
	client := resty.New().SetBaseURL(cfg.GatewayBaseURL)
	return &idealGateway{
		client:    client,
		merchant:  cfg.GatewayMerchant,
		secret:    cfg.GatewaySecret,
		returnURL: cfg.GatewayReturnURL,
	}
}

func (g *idealGateway) CreateTransaction(ctx context.Context, amount decimal.Decimal, bank, description, reference string) (*GatewayTransaction, error) {
	var result GatewayTransaction
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"merchant_id": g.merchant,
			"amount":      amount.StringFixed(2),
			"bank_id":     bank,
			"description": description,
			"reference":   reference,
			"return_url":  g.returnURL,
			"checksum":    checksum(g.secret, g.merchant, amount.StringFixed(2), reference),
		}).
		SetResult(&result).
		Post("/transactions")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway refused transaction: %s", resp.Status())
	}
	if result.TransactionID == "" || result.IssuerURL == "" {
		return nil, fmt.Errorf("gateway returned an incomplete transaction")
	}
	return &result, nil
}

func (g *idealGateway) TransactionStatus(ctx context.Context, transactionID string) (*GatewayStatus, error) {
	var result GatewayStatus
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/transactions/" + transactionID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway status lookup failed: %s", resp.Status())
	}
	return &result, nil
}

func checksum(secret string, fields ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, f := range fields {
		mac.Write([]byte(f))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

func validChecksum(secret, transactionID, status, provided string) bool {
	expected := checksum(secret, transactionID, status)
	return hmac.Equal([]byte(expected), []byte(provided))
}
