package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/usemaya/maya/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO task (uid, creator_id, content, due_date, status, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatorID,
		create.Content,
		create.DueDate,
		create.Status,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"TRUE"}, []any{}
	if v := find.ID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if v := find.UID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("uid = $%d", len(args)))
	}
	if v := find.CreatorID; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if v := find.Status; v != nil {
		args = append(args, *v)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	order := "ASC"
	if find.OrderDesc {
		order = "DESC"
	}
	stmt := fmt.Sprintf(`
		SELECT id, uid, creator_id, content, due_date, status, created_ts
		FROM task
		WHERE %s
		ORDER BY created_ts %s, id %s
	`, joinAnd(where), order, order)
	if find.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*store.Task{}
	for rows.Next() {
		task := &store.Task{}
		if err := rows.Scan(
			&task.ID,
			&task.UID,
			&task.CreatorID,
			&task.Content,
			&task.DueDate,
			&task.Status,
			&task.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	return list, rows.Err()
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	set, args := []string{}, []any{}
	if v := update.Content; v != nil {
		args = append(args, *v)
		set = append(set, fmt.Sprintf("content = $%d", len(args)))
	}
	if v := update.DueDate; v != nil {
		args = append(args, *v)
		set = append(set, fmt.Sprintf("due_date = $%d", len(args)))
	}
	if v := update.Status; v != nil {
		args = append(args, *v)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, update.ID, update.CreatorID)

	stmt := fmt.Sprintf(`
		UPDATE task
		SET %s
		WHERE id = $%d AND creator_id = $%d
		RETURNING id, uid, creator_id, content, due_date, status, created_ts
	`, strings.Join(set, ", "), len(args)-1, len(args))

	task := &store.Task{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&task.ID,
		&task.UID,
		&task.CreatorID,
		&task.Content,
		&task.DueDate,
		&task.Status,
		&task.CreatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) error {
	result, err := d.db.ExecContext(ctx,
		"DELETE FROM task WHERE id = $1 AND creator_id = $2",
		delete.ID, delete.CreatorID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
