package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// CreateWuphf validates and stores a new post. Author defaults to
// "Anonymous"; a nil channel list becomes empty.
func (s *Store) CreateWuphf(ctx context.Context, content, author string, channels []string, urgent bool) (Wuphf, error) {
	if strings.TrimSpace(content) == "" {
		return Wuphf{}, fmt.Errorf("content is required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(content) > s.maxContent {
		return Wuphf{}, fmt.Errorf("content exceeds %d characters: %w", s.maxContent, ErrValidation)
	}
	if author == "" {
		author = "Anonymous"
	}
	return s.insertWuphf(ctx, content, author, channels, urgent, 0, 0, s.now().UTC())
}

func (s *Store) insertWuphf(ctx context.Context, content, author string, channels []string, urgent bool, likes, rewuphfs int, createdAt time.Time) (Wuphf, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO wuphfs (content, author_name, created_at, likes, rewuphfs, channels, urgent) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		content, author, createdAt.UnixNano(), likes, rewuphfs, joinChannels(channels), boolInt(urgent))
	if err != nil {
		return Wuphf{}, fmt.Errorf("insert wuphf: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Wuphf{}, err
	}
	return s.GetWuphf(ctx, id)
}

// GetWuphf returns the post with its replies attached.
func (s *Store) GetWuphf(ctx context.Context, id int64) (Wuphf, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, author_name, created_at, likes, rewuphfs, channels, urgent, printed, image_url
		 FROM wuphfs WHERE id = ?`, id)
	w, err := scanWuphf(row)
	if err != nil {
		return Wuphf{}, err
	}
	replies, err := s.repliesFor(ctx, []int64{id})
	if err != nil {
		return Wuphf{}, err
	}
	w.Replies = replies[id]
	if w.Replies == nil {
		w.Replies = []Reply{}
	}
	return w, nil
}

// RecentWuphfs returns up to limit posts, newest first. Creation-time ties
// break by id so a later insert sorts first. limit <= 0 means 50.
func (s *Store) RecentWuphfs(ctx context.Context, limit int) ([]Wuphf, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, author_name, created_at, likes, rewuphfs, channels, urgent, printed, image_url
		 FROM wuphfs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Wuphf{}
	ids := []int64{}
	for rows.Next() {
		w, err := scanWuphf(rows)
		if err != nil {
			return nil, err
		}
		w.Replies = []Reply{}
		out = append(out, w)
		ids = append(ids, w.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	replies, err := s.repliesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if rs := replies[out[i].ID]; rs != nil {
			out[i].Replies = rs
		}
	}
	return out, nil
}

// LikeWuphf atomically bumps the like counter and returns the updated post.
func (s *Store) LikeWuphf(ctx context.Context, id int64) (Wuphf, error) {
	return s.increment(ctx, id, "likes")
}

// Rewuphf atomically bumps the reshare counter and returns the updated post.
func (s *Store) Rewuphf(ctx context.Context, id int64) (Wuphf, error) {
	return s.increment(ctx, id, "rewuphfs")
}

func (s *Store) increment(ctx context.Context, id int64, column string) (Wuphf, error) {
	// column is one of our own identifiers, never caller input.
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE wuphfs SET %s = %s + 1 WHERE id = ?`, column, column), id)
	if err != nil {
		return Wuphf{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Wuphf{}, err
	}
	if n == 0 {
		return Wuphf{}, ErrNotFound
	}
	return s.GetWuphf(ctx, id)
}

// AddReply appends a reply to an existing post.
func (s *Store) AddReply(ctx context.Context, wuphfID int64, content, author string) (Reply, error) {
	if strings.TrimSpace(content) == "" {
		return Reply{}, fmt.Errorf("reply content is required: %w", ErrValidation)
	}
	if author == "" {
		author = "Anonymous"
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM wuphfs WHERE id = ?`, wuphfID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reply{}, ErrNotFound
		}
		return Reply{}, err
	}
	createdAt := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO replies (wuphf_id, content, author_name, created_at) VALUES (?, ?, ?, ?)`,
		wuphfID, content, author, createdAt.UnixNano())
	if err != nil {
		return Reply{}, fmt.Errorf("insert reply: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Reply{}, err
	}
	return Reply{ID: id, WuphfID: wuphfID, Content: content, AuthorName: author, CreatedAt: createdAt}, nil
}

// DeleteWuphf removes a post; its replies go with it (cascade).
func (s *Store) DeleteWuphf(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM wuphfs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) repliesFor(ctx context.Context, ids []int64) (map[int64][]Reply, error) {
	out := map[int64][]Reply{}
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wuphf_id, content, author_name, created_at FROM replies
		 WHERE wuphf_id IN (`+placeholders+`) ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r Reply
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.WuphfID, &r.Content, &r.AuthorName, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		out[r.WuphfID] = append(out[r.WuphfID], r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWuphf(row rowScanner) (Wuphf, error) {
	var w Wuphf
	var createdAt int64
	var channels string
	var urgent, printed int
	err := row.Scan(&w.ID, &w.Content, &w.AuthorName, &createdAt, &w.Likes, &w.Rewuphfs, &channels, &urgent, &printed, &w.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return Wuphf{}, ErrNotFound
	}
	if err != nil {
		return Wuphf{}, err
	}
	w.CreatedAt = time.Unix(0, createdAt).UTC()
	w.Channels = splitChannels(channels)
	w.Urgent = urgent != 0
	w.Printed = printed != 0
	return w, nil
}

// Channels are persisted comma-joined, matching the original data layout.
func joinChannels(channels []string) string { return strings.Join(channels, ",") }

func splitChannels(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
