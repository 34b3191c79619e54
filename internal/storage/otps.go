package storage

import (
	"context"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

// ReplaceOTP drops any previous codes for the phone and records the new
// one, keeping at most one live code per phone.
func (s *Store) ReplaceOTP(ctx context.Context, phone, code string, expiresAt time.Time) error {
	return s.InTx(ctx, func(ctx context.Context, t *Tx) error {
		if _, err := t.tx.ExecContext(ctx,
			t.tx.Rebind(`DELETE FROM otps WHERE phone = ?`), phone); err != nil {
			return mapErr(err)
		}
		_, err := t.tx.ExecContext(ctx, t.tx.Rebind(
			`INSERT INTO otps (phone, code, expires_at, created_at) VALUES (?, ?, ?, ?)`),
			phone, code, expiresAt.UTC(), nowUTC())
		return mapErr(err)
	})
}

// LatestOTP returns the most recent code for a phone, expired or not;
// expiry is judged by the caller against its own clock.
func (s *Store) LatestOTP(ctx context.Context, phone string) (*models.OTP, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var o models.OTP
	err := s.db.GetContext(ctx, &o, s.db.Rebind(
		`SELECT phone, code, expires_at, created_at FROM otps
		 WHERE phone = ? ORDER BY created_at DESC LIMIT 1`), phone)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

// DeleteOTPs consumes all codes for a phone after a successful verify.
func (s *Store) DeleteOTPs(ctx context.Context, phone string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM otps WHERE phone = ?`), phone)
	return mapErr(err)
}
