package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auditDomain "github.com/syncrete/vaultkit/internal/audit/domain"
	cryptoDomain "github.com/syncrete/vaultkit/internal/crypto/domain"
	apperrors "github.com/syncrete/vaultkit/internal/errors"
)

// JWTSecretName is the managed secret holding the jwt signing secret.
const JWTSecretName = "JWT_SECRET"

// RotateJWTSecret generates a new jwt signing secret, probes it by signing and
// verifying a token, and stores it through the normal secret write path.
func (c *keyRotationCoordinator) RotateJWTSecret(ctx context.Context) error {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return apperrors.Wrap(err, "failed to generate jwt secret")
	}
	secret := []byte(base64.RawURLEncoding.EncodeToString(raw))
	cryptoDomain.Zero(raw)

	if err := probeJWTSecret(secret); err != nil {
		return apperrors.Wrap(err, "jwt secret failed sign/verify probe")
	}

	if _, err := c.secretReader.Store(ctx, JWTSecretName, secret, map[string]string{
		"managed_by": "rotation",
	}); err != nil {
		return err
	}
	cryptoDomain.Zero(secret)

	if err := c.recorder.Record(ctx, auditDomain.EventJWTSecretRotated, c.actor, map[string]any{
		"name":       JWTSecretName,
		"rotated_at": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to record jwt secret rotation", slog.Any("error", err))
	}

	c.logger.InfoContext(ctx, "jwt signing secret rotated", slog.String("name", JWTSecretName))
	return nil
}

// probeJWTSecret signs and verifies a throwaway token with the candidate
// secret. A secret that cannot complete the round trip is never stored.
func probeJWTSecret(secret []byte) error {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "rotation-probe",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return err
	}

	parsed, err := jwt.Parse(signed, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return apperrors.New("probe token did not verify")
	}
	return nil
}
