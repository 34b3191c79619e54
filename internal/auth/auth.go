// Package auth implements phone/OTP login and the session identity the
// rest of the core trusts for authorization checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/ident"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/sms"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/storage"
)

type Service struct {
	store    *storage.Store
	sessions Sessions
	sender   sms.Sender // nil when the SMS collaborator is disabled
	otpTTL   time.Duration
	logger   *slog.Logger
}

func NewService(store *storage.Store, sessions Sessions, sender sms.Sender, otpTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{store: store, sessions: sessions, sender: sender, otpTTL: otpTTL, logger: logger}
}

// Challenge is the result of requesting a login code. DemoCode is set only
// when SMS delivery is off or failed, so a local install stays usable.
type Challenge struct {
	Phone    string `json:"phone"`
	SMSSent  bool   `json:"sms_sent"`
	DemoCode string `json:"demo_code,omitempty"`
}

// RequestOTP issues a fresh one-time code for the phone, creating the user
// row on first contact. SMS failure is never fatal; the flow degrades to
// showing the code in-app.
func (s *Service) RequestOTP(ctx context.Context, phone string) (*Challenge, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fault.Wrap(fault.ErrInvalidInput, "phone number required")
	}

	if _, err := s.store.UserByPhone(ctx, phone); err != nil {
		if !errors.Is(err, fault.ErrNotFound) {
			return nil, err
		}
		if _, err := s.store.CreateUser(ctx, phone); err != nil {
			return nil, err
		}
	}

	code := ident.NewOTP()
	if err := s.store.ReplaceOTP(ctx, phone, code, time.Now().Add(s.otpTTL)); err != nil {
		return nil, err
	}

	if s.sender != nil {
		text := fmt.Sprintf("Your AgroMath OTP is %s. Valid for %d minutes.", code, int(s.otpTTL.Minutes()))
		if err := s.sender.Send(ctx, phone, text); err != nil {
			s.logger.Warn("otp sms failed, falling back to in-app code", "error", err)
		} else {
			return &Challenge{Phone: phone, SMSSent: true}, nil
		}
	}
	return &Challenge{Phone: phone, DemoCode: code}, nil
}

// Verify exchanges a valid code for a session token. Codes are single-use:
// success deletes everything stored for the phone.
func (s *Service) Verify(ctx context.Context, phone, code string) (string, *models.User, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return "", nil, fault.Wrap(fault.ErrInvalidInput, "phone and otp required")
	}

	otp, err := s.store.LatestOTP(ctx, phone)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return "", nil, fault.Wrap(fault.ErrNotAuthorized, "invalid or expired otp")
		}
		return "", nil, err
	}
	if otp.Code != code || time.Now().After(otp.ExpiresAt) {
		return "", nil, fault.Wrap(fault.ErrNotAuthorized, "invalid or expired otp")
	}

	user, err := s.store.UserByPhone(ctx, phone)
	if err != nil {
		return "", nil, err
	}
	if err := s.store.DeleteOTPs(ctx, phone); err != nil {
		return "", nil, err
	}

	token := ident.NewSessionToken()
	if err := s.sessions.Create(ctx, token, user.ID); err != nil {
		return "", nil, fault.Wrap(fault.ErrUnavailable, "session create: %v", err)
	}
	return token, user, nil
}

// CurrentUser resolves a session token to the live user row. The stored
// row wins over anything cached client-side, so role or approval changes
// apply on the next request.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fault.ErrNotAuthorized
	}
	userID, ok, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, fault.Wrap(fault.ErrUnavailable, "session lookup: %v", err)
	}
	if !ok {
		return nil, fault.ErrNotAuthorized
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, fault.ErrNotAuthorized
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}
