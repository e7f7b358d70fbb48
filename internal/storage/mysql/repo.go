package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"hotel_scout/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Init creates the users table when missing.
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createUsersSQL)
	return err
}

func (r *Repo) Upsert(ctx context.Context, u domain.User) error {
	doc, err := encodeSearches(u.Searches)
	if err != nil {
		return fmt.Errorf("encode searches for user %d: %w", u.ID, err)
	}
	_, err = r.db.ExecContext(ctx, upsertUserSQL,
		u.ID, u.FirstName, u.LastName, u.Username, SchemaVersion, string(doc))
	return err
}

func (r *Repo) FindByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, findUserSQL, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) LoadAll(ctx context.Context) (map[int64]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, loadAllUsersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]domain.User)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var version int
	var doc []byte
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &version, &doc); err != nil {
		return domain.User{}, err
	}
	searches, err := decodeSearches(doc, version)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Searches = searches
	return u, nil
}
