// Package credentials persists provider API keys so a rotated key reaches
// the API and workers on their next start without a redeploy.
package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"aivideo/internal/infra"
	"aivideo/internal/sqlinline"
)

const ProviderRunway = "runway"

// ErrMalformedKey is returned for keys Runway would reject outright.
var ErrMalformedKey = errors.New("runway api key must start with key_")

// RunwayKey is the stored key and when it was last changed.
type RunwayKey struct {
	APIKey    string
	RotatedAt time.Time
}

// Hint returns a printable form of the key, e.g. "key_…3f9a".
func (k RunwayKey) Hint() string {
	return Hint(k.APIKey)
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// RunwayKey loads the stored key. A missing row is not an error; ok is
// false instead.
func (s *Store) RunwayKey(ctx context.Context) (key RunwayKey, ok bool, err error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, ProviderRunway)
	if err := row.Scan(&key.APIKey, &key.RotatedAt); err != nil {
		if infra.IsNoRows(err) {
			return RunwayKey{}, false, nil
		}
		return RunwayKey{}, false, err
	}
	key.APIKey = strings.TrimSpace(key.APIKey)
	return key, key.APIKey != "", nil
}

// RotateRunwayKey replaces the stored key. Storing the current key again
// keeps its rotated_at.
func (s *Store) RotateRunwayKey(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("runway api key is required")
	}
	if !strings.HasPrefix(apiKey, "key_") {
		return ErrMalformedKey
	}
	_, err := s.sql.Exec(ctx, sqlinline.QRotateProviderKey, ProviderRunway, apiKey, Hint(apiKey))
	return err
}

// Hint keeps the prefix and the last four characters of apiKey.
func Hint(apiKey string) string {
	const tail = 4
	if len(apiKey) <= len("key_")+tail {
		return "key_…"
	}
	return "key_…" + apiKey[len(apiKey)-tail:]
}
