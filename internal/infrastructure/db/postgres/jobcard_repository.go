package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

type JobCardRepository struct {
	db *sqlx.DB
}

func NewJobCardRepository(db *sqlx.DB) *JobCardRepository {
	return &JobCardRepository{db: db}
}

type jobCardRow struct {
	ID            string    `db:"id"`
	JobCardNumber string    `db:"job_card_number"`
	ChassisNumber *string   `db:"chassis_number"`
	ImagePath     string    `db:"image_path"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r jobCardRow) toDomain() *domain.JobCard {
	return &domain.JobCard{
		ID:            r.ID,
		JobCardNumber: r.JobCardNumber,
		ChassisNumber: r.ChassisNumber,
		ImagePath:     r.ImagePath,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

const jobCardColumns = `id, job_card_number, chassis_number, image_path, created_at, updated_at`

// Create inserts the row and lets the column defaults stamp it, then re-reads
// it so the caller sees exactly what was stored.
func (r *JobCardRepository) Create(ctx context.Context, in domain.NewJobCard) (*domain.JobCard, error) {
	id, err := newID()
	if err != nil {
		return nil, domain.Unexpected("generate job card id", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO job_cards (id, job_card_number, chassis_number, image_path) VALUES ($1, $2, $3, $4)`,
		id, in.JobCardNumber, in.ChassisNumber, in.ImagePath,
	)
	if err != nil {
		return nil, domain.Unexpected("insert job card", err)
	}

	created, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, domain.Unexpected("re-read created job card", nil)
	}
	return created, nil
}

func (r *JobCardRepository) List(ctx context.Context) ([]domain.JobCard, error) {
	var rows []jobCardRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+jobCardColumns+` FROM job_cards ORDER BY id`); err != nil {
		return nil, domain.Unexpected("list job cards", err)
	}
	out := make([]domain.JobCard, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toDomain())
	}
	return out, nil
}

func (r *JobCardRepository) FindByID(ctx context.Context, id string) (*domain.JobCard, error) {
	// ids are uuids; anything else cannot match and would fail the cast
	if !isUUID(id) {
		return nil, nil
	}
	return r.first(ctx, "id", id)
}

func (r *JobCardRepository) FindByJobCardNumber(ctx context.Context, number string) (*domain.JobCard, error) {
	return r.first(ctx, "job_card_number", number)
}

func (r *JobCardRepository) FindByChassisNumber(ctx context.Context, chassis string) (*domain.JobCard, error) {
	return r.first(ctx, "chassis_number", chassis)
}

// first returns the lowest-id row whose column equals value.
func (r *JobCardRepository) first(ctx context.Context, column, value string) (*domain.JobCard, error) {
	var row jobCardRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+jobCardColumns+` FROM job_cards WHERE `+column+` = $1 ORDER BY id LIMIT 1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Unexpected("find job card", err)
	}
	return row.toDomain(), nil
}

// Update writes only the supplied columns. updated_at takes GREATEST of its
// current value and now() so it never moves backward.
func (r *JobCardRepository) Update(ctx context.Context, card *domain.JobCard, patch domain.JobCardPatch) (*domain.JobCard, error) {
	if card == nil || card.ID == "" {
		return nil, domain.Unexpected("update job card without id", nil)
	}
	if patch.IsEmpty() {
		return card, nil
	}

	query, args := updateQuery(card.ID, patch)

	var row jobCardRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unexpected("job card "+card.ID+" no longer exists", nil)
		}
		return nil, domain.Unexpected("update job card", err)
	}

	updated := row.toDomain()
	*card = *updated
	return updated, nil
}

// updateQuery builds an UPDATE that sets only the columns present in patch.
// A null chassis_number is bound as NULL.
func updateQuery(id string, patch domain.JobCardPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if v, ok := patch.JobCardNumber.Value(); ok {
		add("job_card_number", v)
	}
	if patch.ChassisNumber.IsPresent() {
		add("chassis_number", patch.ChassisNumber.Ptr())
	}
	if v, ok := patch.ImagePath.Value(); ok {
		add("image_path", v)
	}
	sets = append(sets, "updated_at = GREATEST(updated_at, now())")
	args = append(args, id)

	query := `UPDATE job_cards SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + jobCardColumns
	return query, args
}

// CountByImagePath reports how many job cards reference path.
func (r *JobCardRepository) CountByImagePath(ctx context.Context, path string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM job_cards WHERE image_path = $1`, path); err != nil {
		return 0, domain.Unexpected("count job card images", err)
	}
	return n, nil
}

// Delete removes the row. A missing id is not an error.
func (r *JobCardRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM job_cards WHERE id = $1`, id); err != nil {
		return domain.Unexpected("delete job card", err)
	}
	return nil
}
