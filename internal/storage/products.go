package storage

import (
	"context"
	"time"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

const productColumns = `id, farmer_user_id, name, unit, price, active, created_at`

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	id, err := insertID(ctx, s.db,
		`INSERT INTO products (farmer_user_id, name, unit, price, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.FarmerID, p.Name, p.Unit, p.Price, true, time.Now().UTC())
	if err != nil {
		return mapErr(err)
	}
	p.ID = id
	p.Active = true
	return nil
}

func (s *Store) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var p models.Product
	err := s.db.GetContext(ctx, &p,
		s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) ProductsByFarmer(ctx context.Context, farmerID int64) ([]models.Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Product
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE farmer_user_id = ? AND active ORDER BY id`), farmerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

// ActiveProducts is the buyer-facing catalogue: active listings from
// approved farmers only.
func (s *Store) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var out []models.Product
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(
		`SELECT p.id, p.farmer_user_id, p.name, p.unit, p.price, p.active, p.created_at
		 FROM products p JOIN users u ON u.id = p.farmer_user_id
		 WHERE p.active AND u.active AND u.farmer_status = ?
		 ORDER BY p.id`), models.FarmerApproved)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE products SET name = ?, unit = ?, price = ? WHERE id = ? AND farmer_user_id = ?`),
		p.Name, p.Unit, p.Price, p.ID, p.FarmerID)
	return mapErr(err)
}

// DeactivateProduct soft-deletes: rows referenced by order items must
// survive for price-snapshot history.
func (s *Store) DeactivateProduct(ctx context.Context, id, farmerID int64) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE products SET active = ? WHERE id = ? AND farmer_user_id = ?`),
		false, id, farmerID)
	return mapErr(err)
}
