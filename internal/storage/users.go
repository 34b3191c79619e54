package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/fault"
	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

const userColumns = `id, phone, name, role, farmer_status, hub_name, hub_lat, hub_lng, hub_accuracy, active, created_at`

// CreateUser registers a phone number seen for the first time at login.
// Role and farmer status start neutral until the user picks a side.
func (s *Store) CreateUser(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := insertID(ctx, s.db,
		`INSERT INTO users (phone, role, farmer_status, created_at) VALUES (?, ?, ?, ?)`,
		phone, models.RoleNone, models.FarmerNone, time.Now().UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	return s.UserByID(ctx, id)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var u models.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var u models.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE phone = ?`), phone)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UpdateProfile writes the mutable profile fields: display name, chosen role
// and the hub pickup location.
func (s *Store) UpdateProfile(ctx context.Context, u *models.User) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE users SET name = ?, role = ?, farmer_status = ?, hub_name = ?, hub_lat = ?, hub_lng = ?, hub_accuracy = ? WHERE id = ?`),
		u.Name, u.Role, u.FarmerStatus, u.HubName, u.HubLat, u.HubLng, u.HubAccuracy, u.ID)
	return mapErr(err)
}

// SetFarmerStatus records the admin decision on a farmer application.
func (s *Store) SetFarmerStatus(ctx context.Context, userID int64, status models.FarmerStatus) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET farmer_status = ? WHERE id = ?`), status, userID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.ErrNotFound
	}
	return nil
}

// ActiveUsersByRole backs role-wide notification fan-out.
func (s *Store) ActiveUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.User
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE role = ? AND active ORDER BY id`), role)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// UserInTx reads a user row inside an open transaction, used when order
// placement derives the origin from the farmer's hub.
func (t *Tx) UserInTx(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := t.tx.GetContext(ctx, &u,
		t.tx.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UsersByID resolves a participant id set to full rows, preserving no
// particular order.
func (s *Store) UsersByID(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	q, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, mapErr(err)
	}
	var out []models.User
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
