package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/shop-service/internal/domain"
)

// MemberRepository defines persistence access for members. It is the
// principal lookup used by the authentication gate.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	Delete(ctx context.Context, id string) error
}

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type memberRepository struct {
	db Querier
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(db Querier) MemberRepository {
	return &memberRepository{db: db}
}

const uniqueViolation = "23505"

const memberColumns = `id, email, name, password_hash, role, created_at, updated_at`

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	const query = `
        INSERT INTO members (email, name, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		member.Email,
		member.Name,
		member.PasswordHash,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrMemberExists
	}
	return err
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id=$1`, id))
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE email=$1`, email))
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) scanOne(row pgx.Row) (*domain.Member, error) {
	var member domain.Member
	if err := row.Scan(
		&member.ID,
		&member.Email,
		&member.Name,
		&member.PasswordHash,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}
