package storage

import (
	"strings"
)

const chatColumns = "id, user_id, external_id, message, role, created_at"

// chatListQuery builds the history query with ? placeholders; callers Rebind
// it for their driver and pass timestamps in the column's native encoding.
func chatListQuery(q ChatQuery, since, until any) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{q.UserID}
	if !q.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, since)
	}
	if !q.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, until)
	}

	query := "SELECT " + chatColumns + " FROM chats WHERE " + strings.Join(where, " AND ")
	if q.Limit > 0 {
		query = "SELECT " + chatColumns + " FROM (" + query +
			" ORDER BY created_at DESC, id DESC LIMIT ?) recent"
		args = append(args, q.Limit)
	}
	return query + " ORDER BY created_at, id", args
}
