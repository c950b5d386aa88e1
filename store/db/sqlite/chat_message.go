package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/usemaya/maya/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO chat_message (creator_id, role, content, created_ts)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.CreatorID,
		create.Role,
		create.Content,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}

	stmt := `
		SELECT id, creator_id, role, content, created_ts
		FROM chat_message
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts ASC, id ASC
	`
	if find.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*store.ChatMessage{}
	for rows.Next() {
		message := &store.ChatMessage{}
		if err := rows.Scan(
			&message.ID,
			&message.CreatorID,
			&message.Role,
			&message.Content,
			&message.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, message)
	}
	return list, rows.Err()
}

func (d *DB) DeleteChatMessages(ctx context.Context, delete *store.DeleteChatMessage) error {
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM chat_message WHERE creator_id = ?",
		delete.CreatorID)
	return err
}
