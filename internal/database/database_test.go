package database

import (
	"testing"

	"walletledger/config"

	"github.com/stretchr/testify/require"
)

func TestNewDBRejectsMalformedDSN(t *testing.T) {
	_, err := NewDB(&config.DatabaseConfig{DSN: "not a dsn"})
	require.Error(t, err)
}
