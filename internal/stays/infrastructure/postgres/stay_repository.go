package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	stays "dorm-billing/internal/stays/domain"
)

const defaultStaysTable = "stays"

// StayRepository is a Postgres implementation for stay lookups.
type StayRepository struct {
	db    *sql.DB
	table string
}

// NewStayRepository constructs a repository.
func NewStayRepository(db *sql.DB, opts ...RepositoryOption) *StayRepository {
	repo := &StayRepository{db: db, table: defaultStaysTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*StayRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *StayRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// GetByID loads a stay with occupant and room details.
func (r *StayRepository) GetByID(ctx context.Context, stayID string) (*stays.Stay, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stay repo: nil db")
	}
	if stayID == "" {
		return nil, stays.ErrEmptyStayID
	}

	query := fmt.Sprintf(`
SELECT s.stay_id, s.user_id, u.user_name, s.room_id, rm.room_num,
	s.room_price, s.stay_date, s.stay_dateout, s.stay_status
FROM %s s
JOIN users u ON u.user_id = s.user_id
JOIN rooms rm ON rm.room_id = s.room_id
WHERE s.stay_id = $1
LIMIT 1`, r.table)

	row := r.db.QueryRowContext(ctx, query, stayID)
	stay, err := scanStay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stays.ErrStayNotFound
		}
		return nil, err
	}
	return stay, nil
}

// ListOccupied returns stays that are currently billable.
func (r *StayRepository) ListOccupied(ctx context.Context) ([]stays.Stay, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stay repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT s.stay_id, s.user_id, u.user_name, s.room_id, rm.room_num,
	s.room_price, s.stay_date, s.stay_dateout, s.stay_status
FROM %s s
JOIN users u ON u.user_id = s.user_id
JOIN rooms rm ON rm.room_id = s.room_id
WHERE s.stay_status IN ('checked-in', 'active')
ORDER BY s.stay_date DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stays.Stay
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *stay)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStay(row rowScanner) (*stays.Stay, error) {
	var stay stays.Stay
	var price string
	var dateOut sql.NullTime
	var status string
	if err := row.Scan(&stay.ID, &stay.UserID, &stay.UserName, &stay.RoomID, &stay.RoomNum,
		&price, &stay.StayDate, &dateOut, &status); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("stay repo: bad room price: %w", err)
	}
	stay.RoomPrice = parsed
	if dateOut.Valid {
		out := dateOut.Time.UTC()
		stay.DateOut = &out
	}
	if normalized, ok := stays.ParseStatus(status); ok {
		stay.Status = normalized
	}
	stay.StayDate = stay.StayDate.UTC()
	return &stay, nil
}
