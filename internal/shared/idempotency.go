package shared

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"
)

// Idempotency modules.
const (
	IdempotencyModulePayment    = "ar.payment"
	IdempotencyModuleCommission = "commission.compute"
)

// IdempotencyRecord binds a caller supplied key to the resource it produced.
type IdempotencyRecord struct {
	Key         string
	Module      string
	Fingerprint string
	ResourceID  int64
	CreatedAt   time.Time
}

var (
	// ErrIdempotencyConflict indicates a key replayed with a different request body.
	ErrIdempotencyConflict = Conflict("idempotency key already used for a different request")
	// ErrIdempotencyInFlight indicates a concurrent request holds the same key.
	ErrIdempotencyInFlight = Conflict("request with this idempotency key is already being processed")
	// ErrIdempotencyKeyInvalid indicates a key that is not a UUID.
	ErrIdempotencyKeyInvalid = Validation("idempotency key must be a UUID")
)

// NormalizeIdempotencyKey trims and validates a caller supplied key. Empty keys are allowed.
func NormalizeIdempotencyKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return "", ErrIdempotencyKeyInvalid
	}
	return id.String(), nil
}

// Fingerprint hashes the canonical JSON form of v.
func Fingerprint(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Replay decides whether rec answers a request with the given fingerprint.
func (rec IdempotencyRecord) Replay(fingerprint string) (int64, error) {
	if rec.Fingerprint != fingerprint {
		return 0, ErrIdempotencyConflict
	}
	return rec.ResourceID, nil
}

// LookupIdempotency loads a key inside the caller's transaction.
func LookupIdempotency(ctx context.Context, q DBTX, module, key string) (IdempotencyRecord, bool, error) {
	var rec IdempotencyRecord
	err := q.QueryRow(ctx, `SELECT key, module, fingerprint, resource_id, created_at
FROM idempotency_keys WHERE module = $1 AND key = $2`, module, key).
		Scan(&rec.Key, &rec.Module, &rec.Fingerprint, &rec.ResourceID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// SaveIdempotency stores rec inside the caller's transaction.
func SaveIdempotency(ctx context.Context, q DBTX, rec IdempotencyRecord) error {
	if rec.Key == "" || rec.Module == "" {
		return errors.New("idempotency key and module required")
	}
	_, err := q.Exec(ctx, `INSERT INTO idempotency_keys (key, module, fingerprint, resource_id, created_at)
VALUES ($1, $2, $3, $4, NOW())`, rec.Key, rec.Module, rec.Fingerprint, rec.ResourceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyInFlight
		}
		return err
	}
	return nil
}

// IdempotencyStore maintains the idempotency_keys table.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Cleanup removes entries older than retention and returns how many were deleted.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
