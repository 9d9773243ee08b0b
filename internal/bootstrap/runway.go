package bootstrap

import (
	"context"
	"time"

	"aivideo/internal/infra"
	"aivideo/internal/providers/runway"
)

// AccountChecker is the part of *runway.Client used when a binary starts.
type AccountChecker interface {
	Model() string
	Me(ctx context.Context) (*runway.Account, error)
}

// CheckRunwayAccount fetches the Runway account once and logs the remaining
// credits. A failure is only logged: jobs report their own provider errors.
func CheckRunwayAccount(ctx context.Context, acct AccountChecker, timeout time.Duration, logger infra.Logger) (*runway.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	account, err := acct.Me(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("model", acct.Model()).Msg("bootstrap: runway account check failed")
		return nil, err
	}
	logger.Info().
		Str("model", acct.Model()).
		Float64("credits", account.Credits).
		Msg("bootstrap: runway account ready")
	return account, nil
}
