package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotencyKey(t *testing.T) {
	key, err := NormalizeIdempotencyKey("")
	require.NoError(t, err)
	require.Empty(t, key)

	key, err = NormalizeIdempotencyKey("  6F9619FF-8B86-D011-B42D-00C04FC964FF ")
	require.NoError(t, err)
	require.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", key)

	_, err = NormalizeIdempotencyKey("retry-1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestFingerprintIsStable(t *testing.T) {
	type req struct {
		InvoiceID int64
		Amount    int64
	}
	a, err := Fingerprint(req{InvoiceID: 1, Amount: 500})
	require.NoError(t, err)
	b, err := Fingerprint(req{InvoiceID: 1, Amount: 500})
	require.NoError(t, err)
	c, err := Fingerprint(req{InvoiceID: 1, Amount: 501})
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
}

func TestIdempotencyReplay(t *testing.T) {
	rec := IdempotencyRecord{Key: "k", Module: IdempotencyModulePayment, Fingerprint: "abc", ResourceID: 9}
	id, err := rec.Replay("abc")
	require.NoError(t, err)
	require.Equal(t, int64(9), id)

	_, err = rec.Replay("other")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
}
