package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnitConversion(t *testing.T) {
	require.Equal(t, "5000", FromMinor(500000).String())
	require.Equal(t, "12.34", FromMinor(1234).String())

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"5000", 500000, false},
		{"12.34", 1234, false},
		{"0.5", 50, false},
		{"1.005", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMinor(decimal.RequireFromString(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("sk_test_secret")
	body := []byte(`{"event":"charge.success","data":{"reference":"r1","amount":500000}}`)
	sig := Sign(secret, body)

	require.True(t, VerifySignature(secret, body, sig))
	require.False(t, VerifySignature(secret, append([]byte(" "), body...), sig), "re-encoded body")
	require.False(t, VerifySignature([]byte("other"), body, sig))
	require.False(t, VerifySignature(secret, body, ""))
	require.False(t, VerifySignature(nil, body, Sign(nil, body)))
	require.Len(t, sig, 128)
}

func TestParseEvent(t *testing.T) {
	raw := []byte(`{"event":"charge.success","data":{"reference":"ref-9","amount":500000,"status":"success","paid_at":"2026-01-02T10:11:12.000Z","customer":{"email":"a@b.co"}}}`)
	ev, err := ParseEvent(raw)
	require.NoError(t, err)
	require.Equal(t, EventChargeSuccess, ev.Type)
	require.Equal(t, "ref-9", ev.Reference)
	require.Equal(t, StatusSuccess, ev.Status)
	require.True(t, ev.Amount.Equal(decimal.NewFromInt(5000)))
	require.Equal(t, "a@b.co", ev.Email)
	require.NotNil(t, ev.PaidAt)
	require.Equal(t, 2026, ev.PaidAt.Year())

	_, err = ParseEvent([]byte(`not json`))
	require.Error(t, err)
	_, err = ParseEvent([]byte(`{"data":{}}`))
	require.Error(t, err)
}

func TestMapStatus(t *testing.T) {
	tests := map[string]Status{
		"success":    StatusSuccess,
		"failed":     StatusFailed,
		"abandoned":  StatusFailed,
		"reversed":   StatusFailed,
		"ongoing":    StatusPending,
		"processing": StatusPending,
		"":           StatusPending,
	}
	for in, want := range tests {
		require.Equal(t, want, mapStatus(in), in)
	}
}

func TestPaystackInitiate(t *testing.T) {
	var gotAuth string
	var gotBody initializeReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
	}))
	defer srv.Close()

	p := NewPaystackProvider(srv.URL, "sk_test_123", "https://app.example/cb", 5*time.Second, zap.NewNop())
	sess, err := p.Initiate(context.Background(), InitRequest{Email: "payer@example.com", Amount: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	require.Equal(t, "ref-1", sess.Reference)
	require.Equal(t, "https://checkout.paystack.com/abc", sess.RedirectURL)
	require.Equal(t, "Bearer sk_test_123", gotAuth)
	require.Equal(t, int64(500000), gotBody.Amount)
	require.Equal(t, "payer@example.com", gotBody.Email)
	require.Equal(t, "https://app.example/cb", gotBody.CallbackURL)
}

func TestPaystackInitiateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	p := NewPaystackProvider(srv.URL, "bad", "", time.Second, zap.NewNop())
	_, err := p.Initiate(context.Background(), InitRequest{Email: "x@y.z", Amount: decimal.NewFromInt(100)})
	require.ErrorIs(t, err, ErrProvider)
	require.Contains(t, err.Error(), "Invalid key")
}

func TestPaystackVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/ref-2", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"ref-2","status":"abandoned","amount":250050,"paid_at":null}}`))
	}))
	defer srv.Close()

	p := NewPaystackProvider(srv.URL, "sk", "", time.Second, zap.NewNop())
	v, err := p.Verify(context.Background(), "ref-2")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, v.Status)
	require.Equal(t, "2500.5", v.Amount.String())
	require.Nil(t, v.SettledAt)
}

func TestPaystackVerifyHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewPaystackProvider(srv.URL, "sk", "", 5*time.Second, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.Verify(ctx, "ref-3")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStubProvider(t *testing.T) {
	s := &StubProvider{}
	sess, err := s.Initiate(context.Background(), InitRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	v, err := s.Verify(context.Background(), sess.Reference)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, v.Status)
	require.True(t, v.Amount.IsZero())

	v, err = s.Verify(context.Background(), "other")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, v.Status)
}
