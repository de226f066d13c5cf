package usecase

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	rotationDomain "github.com/syncrete/vaultkit/internal/rotation/domain"
)

// validateConcurrency bounds parallel decryptions during a validation run.
const validateConcurrency = 4

// ValidateEncryption decrypts a sample of active secrets under the current key
// and reports the names that fail. A non-empty failure list is returned as a
// *rotationDomain.VerificationError alongside the report.
func (c *keyRotationCoordinator) ValidateEncryption(
	ctx context.Context,
	sampleSize int,
) (*ValidationReport, error) {
	secrets, err := c.secretReader.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if sampleSize > 0 && sampleSize < len(secrets) {
		rand.Shuffle(len(secrets), func(i, j int) {
			secrets[i], secrets[j] = secrets[j], secrets[i]
		})
		secrets = secrets[:sampleSize]
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(validateConcurrency)
	for _, secret := range secrets {
		name := secret.Name
		g.Go(func() error {
			decrypted, err := c.secretReader.Get(gctx, name)
			if err != nil {
				mu.Lock()
				failed = append(failed, name)
				mu.Unlock()
				return nil
			}
			cryptoDomain.Zero(decrypted.Plaintext)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &ValidationReport{
		Checked: len(secrets),
		Failed:  failed,
	}

	if len(failed) > 0 {
		c.logger.ErrorContext(ctx, "encryption validation found undecryptable secrets",
			slog.Int("checked", report.Checked),
			slog.Int("failed", len(failed)),
		)
		return report, &rotationDomain.VerificationError{FailedSecrets: failed}
	}

	c.logger.InfoContext(ctx, "encryption validation passed", slog.Int("checked", report.Checked))
	return report, nil
}
