package ledger

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"walletledger/internal/apperr"
	"walletledger/internal/domain"

	"github.com/oklog/ulid/v2"
)

// NewReference returns a lowercase ULID prefixed for transfer legs.
func NewReference() string {
	return "trf_" + strings.ToLower(ulid.Make().String())
}

var walletNumberSpace = big.NewInt(100_000_000_000)

// NewWalletNumber returns the fixed prefix followed by 11 random digits.
func NewWalletNumber() string {
	n, err := rand.Int(rand.Reader, walletNumberSpace)
	if err != nil {
		panic(fmt.Sprintf("wallet number entropy: %v", err))
	}
	return fmt.Sprintf("%s%011d", domain.WalletNumberPrefix, n.Int64())
}

// allocate draws from gen until taken reports false, at most attempts times.
func allocate(ctx context.Context, attempts int, gen func() string, taken func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < attempts; i++ {
		v := gen()
		used, err := taken(ctx, v)
		if err != nil {
			return "", err
		}
		if !used {
			return v, nil
		}
	}
	return "", apperr.Conflict("no unique value after %d attempts", attempts)
}
