package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

type PrincipalRepository struct {
	db *sqlx.DB
}

func NewPrincipalRepository(db *sqlx.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

type principalRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r principalRow) toDomain() *domain.Principal {
	return &domain.Principal{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

const principalColumns = `id, username, password_hash, role, created_at`

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	id, err := newID()
	if err != nil {
		return nil, domain.Unexpected("generate principal id", err)
	}

	var row principalRow
	err = r.db.GetContext(ctx, &row, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+principalColumns,
		id, p.Username, p.PasswordHash, string(p.Role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Validation("User " + p.Username + " already exists")
		}
		return nil, domain.Unexpected("insert principal", err)
	}
	return row.toDomain(), nil
}

func (r *PrincipalRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	var row principalRow
	err := r.db.GetContext(ctx, &row, `SELECT `+principalColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unexpected("find principal", err)
	}
	return row.toDomain(), nil
}
