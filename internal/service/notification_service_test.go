package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"walletledger/internal/ledger"
	"walletledger/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPublisher struct {
	got []ledger.Event
	err error
}

func (p *stubPublisher) Publish(_ context.Context, ev ledger.Event) error {
	p.got = append(p.got, ev)
	return p.err
}

func (p *stubPublisher) Close() error { return nil }

func TestNotifyFansOut(t *testing.T) {
	hub := ws.NewHub()
	client := ws.NewClient("alice")
	hub.Register(client)
	pub := &stubPublisher{}
	svc := NewNotificationService(hub, pub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := ledger.Event{Type: "transfer.credit", OwnerID: "alice", Reference: "trf_1", Amount: decimal.NewFromInt(40)}
	svc.Notify(ctx, ev)

	require.Len(t, pub.got, 1)
	require.Equal(t, "trf_1", pub.got[0].Reference)

	var msg struct {
		Type string       `json:"type"`
		Data ledger.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-client.Send, &msg))
	require.Equal(t, "transfer.credit", msg.Type)
	require.Equal(t, "alice", msg.Data.OwnerID)
}

func TestNotifySwallowsPublishErrors(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := NewNotificationService(nil, pub, zap.NewNop())
	require.NotPanics(t, func() {
		svc.Notify(context.Background(), ledger.Event{Type: "deposit.failed", OwnerID: "bob"})
	})
	require.Len(t, pub.got, 1)
}
