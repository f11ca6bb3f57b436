package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// PaystackProvider talks to the Paystack transaction API with the secret key as bearer token.
type PaystackProvider struct {
	baseURL     string
	callbackURL string
	client      *http.Client
	logger      *zap.Logger
}

func NewPaystackProvider(baseURL, secretKey, callbackURL string, timeout time.Duration, logger *zap.Logger) *PaystackProvider {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey, TokenType: "Bearer"})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = timeout
	return &PaystackProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		callbackURL: callbackURL,
		client:      client,
		logger:      logger,
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeReq struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

func (p *PaystackProvider) Initiate(ctx context.Context, req InitRequest) (*Session, error) {
	minor, err := ToMinor(req.Amount)
	if err != nil {
		return nil, err
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = p.callbackURL
	}
	body, err := json.Marshal(initializeReq{Email: req.Email, Amount: minor, CallbackURL: callback})
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: encode request: %w", err)
	}

	var data initializeData
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}
	if data.Reference == "" {
		return nil, fmt.Errorf("initialize transaction: %w: empty reference", ErrProvider)
	}
	p.logger.Info("paystack transaction initialized", zap.String("reference", data.Reference), zap.Int64("amount_kobo", minor))
	return &Session{Reference: data.Reference, RedirectURL: data.AuthorizationURL, AccessCode: data.AccessCode}, nil
}

func (p *PaystackProvider) Verify(ctx context.Context, reference string) (*Verification, error) {
	var data verifyData
	if err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, fmt.Errorf("verify transaction %s: %w", reference, err)
	}
	ref := data.Reference
	if ref == "" {
		ref = reference
	}
	return &Verification{
		Reference: ref,
		Status:    mapStatus(data.Status),
		Amount:    FromMinor(data.Amount),
		SettledAt: parseTime(data.PaidAt),
	}, nil
}

func (p *PaystackProvider) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: status %d: undecodable body", ErrProvider, resp.StatusCode)
	}
	if resp.StatusCode >= 300 || !env.Status {
		p.logger.Warn("paystack request rejected",
			zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("message", env.Message))
		return fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrProvider, err)
	}
	return nil
}

var _ Provider = (*PaystackProvider)(nil)
