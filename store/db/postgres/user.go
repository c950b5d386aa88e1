package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/usemaya/maya/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO "user" (email, password_hash, created_ts)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Email,
		create.PasswordHash,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"TRUE"}, []any{}
	if v := find.ID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if v := find.Email; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("email = $%d", len(args)))
	}

	stmt := `
		SELECT id, email, password_hash, created_ts
		FROM "user"
		WHERE ` + joinAnd(where) + `
		LIMIT 1
	`
	user := &store.User{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
