package openpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vdmx/vdmx-backend/internal/pkg/env"
	apperrors "github.com/vdmx/vdmx-backend/pkg/errors"
)

const defaultAPIBaseURL = "https://sandbox-api.openpay.mx/v1"

// Client calls the Openpay REST API. Only the charge-creation flow is used;
// everything else arrives through the webhook.
type Client struct {
	MerchantID string
	PrivateKey string
	APIBaseURL string

	HTTPClient *http.Client
}

type ChargeCustomer struct {
	Name        string `json:"name"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type ChargeRequest struct {
	Method          string          `json:"method"`
	SourceID        string          `json:"source_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	OrderID         string          `json:"order_id"`
	DeviceSessionID string          `json:"device_session_id,omitempty"`
	Customer        ChargeCustomer  `json:"customer"`
}

type ChargeResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OrderID       string          `json:"order_id"`
	Description   string          `json:"description"`
	CreationDate  string          `json:"creation_date"`
	Authorization string          `json:"authorization"`
}

func NewClientFromEnv() *Client {
	return &Client{
		MerchantID: strings.TrimSpace(env.GetEnv("OPENPAY_MERCHANT_ID", "")),
		PrivateKey: strings.TrimSpace(env.GetEnv("OPENPAY_PRIVATE_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("OPENPAY_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCharge posts a card charge. Openpay authenticates with the private
// key as basic-auth username and an empty password.
func (c *Client) CreateCharge(ctx context.Context, charge ChargeRequest) (*ChargeResponse, error) {
	if strings.TrimSpace(c.MerchantID) == "" || strings.TrimSpace(c.PrivateKey) == "" {
		return nil, errors.New("OPENPAY_MERCHANT_ID/OPENPAY_PRIVATE_KEY are not configured")
	}
	if strings.TrimSpace(charge.SourceID) == "" {
		return nil, errors.New("charge source_id is required")
	}
	if charge.Method == "" {
		charge.Method = "card"
	}
	if charge.Currency == "" {
		charge.Currency = "MXN"
	}

	payload, err := json.Marshal(charge)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/charges", c.APIBaseURL, c.MerchantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.PrivateKey, "")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGatewayError, "openpay charge request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Wrap(apperrors.CodeGatewayError,
			fmt.Sprintf("openpay charge rejected: status=%d body=%s", resp.StatusCode, string(body)), nil)
	}

	var out ChargeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGatewayError, "openpay charge response unreadable", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, apperrors.Wrap(apperrors.CodeGatewayError, "openpay charge response missing id", nil)
	}
	return &out, nil
}
