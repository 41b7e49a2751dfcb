package db

import (
	"context"
	"strings"

	"marketplace/internal/lifecycle"
	"marketplace/models"
)

// Пользователи

const profileColumns = `id, role, status, display_name, real_name, email, password_hash,
        phone, company_name, rating, total_orders, created_at, approved_at, approved_by`

// CreateProfile inserts a profile; the display name is generated by the
// database from the role.
func (s *Storage) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
        INSERT INTO user_profiles
            (id, role, status, display_name, real_name, email, password_hash, phone, company_name)
        VALUES
            ($1, $2, $3, generate_random_name($2::text), $4, $5, $6, $7, $8)
        RETURNING display_name, rating, total_orders, created_at`
	err := s.q.QueryRowxContext(ctx, query,
		p.ID, p.Role, p.Status, p.RealName, strings.ToLower(p.Email), p.PasswordHash, p.Phone, p.CompanyName).
		Scan(&p.DisplayName, &p.Rating, &p.TotalOrders, &p.CreatedAt)
	return mapError(err)
}

func (s *Storage) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	if err := s.get(ctx, p, query, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE email = $1`
	if err := s.get(ctx, p, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfile stores the self-editable fields of a profile.
func (s *Storage) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	query := `
        UPDATE user_profiles
        SET real_name = $1, company_name = $2, phone = $3
        WHERE id = $4`
	n, err := s.exec(ctx, query, p.RealName, p.CompanyName, p.Phone, p.ID)
	if err != nil {
		return err
	}
	return notFoundIfZero(n)
}

type ProfileFilter struct {
	Role   models.Role
	Status models.UserStatus
}

func (s *Storage) ListProfiles(ctx context.Context, f ProfileFilter, limit, offset int) ([]models.UserProfile, error) {
	var w whereClause
	if f.Role != "" {
		w.add("role = $%d", f.Role)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	query := `SELECT ` + profileColumns + ` FROM user_profiles` + w.String() +
		` ORDER BY created_at DESC` + w.page(limit, offset)

	profiles := []models.UserProfile{}
	if err := s.sel(ctx, &profiles, query, w.args...); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SetProfileStatus moves a profile to status. Approval stamps who approved
// it and when.
func (s *Storage) SetProfileStatus(ctx context.Context, id string, status models.UserStatus, adminID string) (*models.UserProfile, error) {
	query := `
        UPDATE user_profiles
        SET status = $2::text,
            approved_at = CASE WHEN $2::text = 'approved' THEN NOW() ELSE approved_at END,
            approved_by = CASE WHEN $2::text = 'approved' THEN $3::uuid ELSE approved_by END
        WHERE id = $1
        RETURNING ` + profileColumns
	p := &models.UserProfile{}
	if err := s.get(ctx, p, query, id, status, adminID); err != nil {
		return nil, err
	}
	return p, nil
}

func notFoundIfZero(n int64) error {
	if n == 0 {
		return lifecycle.ErrNotFound
	}
	return nil
}
