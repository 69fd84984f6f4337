package store

import (
	"context"
	"fmt"
	"time"

	"wuphf.social/internal/catalogs"
)

// SeedIfEmpty applies the reference data once. Mirrors the original seeder:
// a non-empty users table means the database was already populated.
func (s *Store) SeedIfEmpty(ctx context.Context, seed *catalogs.Seed) error {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := s.now().UTC()
	for _, c := range seed.Channels {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO channels (name, description, icon_class, active) VALUES (?, ?, ?, ?)`,
			c.Name, c.Description, c.IconClass, boolInt(c.Active)); err != nil {
			return fmt.Errorf("seed channel %q: %w", c.Name, err)
		}
	}
	for _, u := range seed.Users {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO users (username, email, phone_number, facebook_id, twitter_handle,
				printer_notifications, sound_notifications, email_notifications, sms_notifications,
				joined_at, wuphfs_sent, wuphfs_received)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Username, u.Email, u.PhoneNumber, u.FacebookID, u.TwitterHandle,
			boolInt(u.PrinterNotifications), boolInt(u.SoundNotifications),
			boolInt(u.EmailNotifications), boolInt(u.SmsNotifications),
			now.UnixNano(), u.WuphfsSent, u.WuphfsReceived); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	for _, w := range seed.Wuphfs {
		createdAt := now.Add(-time.Duration(w.AgeMinutes) * time.Minute)
		if _, err := s.insertWuphf(ctx, w.Content, w.Author, w.Channels, w.Urgent, w.Likes, w.Rewuphfs, createdAt); err != nil {
			return fmt.Errorf("seed wuphf: %w", err)
		}
	}
	return nil
}

// Channels returns the seeded notification-channel catalog.
func (s *Store) Channels(ctx context.Context) ([]catalogs.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, icon_class, active FROM channels ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []catalogs.Channel{}
	for rows.Next() {
		var c catalogs.Channel
		var active int
		if err := rows.Scan(&c.Name, &c.Description, &c.IconClass, &active); err != nil {
			return nil, err
		}
		c.Active = active != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// Users returns the seeded user profiles.
func (s *Store) Users(ctx context.Context) ([]catalogs.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, email, phone_number, facebook_id, twitter_handle,
			printer_notifications, sound_notifications, email_notifications, sms_notifications,
			wuphfs_sent, wuphfs_received
		 FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []catalogs.User{}
	for rows.Next() {
		var u catalogs.User
		var printer, sound, email, sms int
		if err := rows.Scan(&u.Username, &u.Email, &u.PhoneNumber, &u.FacebookID, &u.TwitterHandle,
			&printer, &sound, &email, &sms, &u.WuphfsSent, &u.WuphfsReceived); err != nil {
			return nil, err
		}
		u.PrinterNotifications = printer != 0
		u.SoundNotifications = sound != 0
		u.EmailNotifications = email != 0
		u.SmsNotifications = sms != 0
		out = append(out, u)
	}
	return out, rows.Err()
}
