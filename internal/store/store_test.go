package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wuphf.social/internal/catalogs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "wuphf.db"), Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateWuphf_Defaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWuphf(ctx, "Hello", "", nil, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if w.AuthorName != "Anonymous" {
		t.Fatalf("author = %q, want Anonymous", w.AuthorName)
	}
	if len(w.Channels) != 0 {
		t.Fatalf("channels = %v, want empty", w.Channels)
	}
	if w.Likes != 0 || w.Rewuphfs != 0 {
		t.Fatalf("counters = %d/%d, want 0/0", w.Likes, w.Rewuphfs)
	}
	if w.Printed {
		t.Fatalf("printed should default false")
	}
	if w.CreatedAt.IsZero() {
		t.Fatalf("expected creation timestamp")
	}
}

func TestCreateWuphf_Validation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"too long", strings.Repeat("x", 281)},
	}
	for _, tc := range cases {
		if _, err := s.CreateWuphf(ctx, tc.content, "a", nil, false); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}

	// Nothing stored.
	n, err := s.CountWuphfs(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}

	// Boundary: exactly 280 runes is fine, multibyte included.
	if _, err := s.CreateWuphf(ctx, strings.Repeat("ü", 280), "a", nil, false); err != nil {
		t.Fatalf("280 runes: %v", err)
	}
}

func TestCreateWuphf_UniqueIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		w, err := s.CreateWuphf(ctx, "post", "a", nil, false)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[w.ID] {
			t.Fatalf("duplicate id %d", w.ID)
		}
		seen[w.ID] = true
	}
}

func TestRecentWuphfs_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	first, _ := s.CreateWuphf(ctx, "first", "a", nil, false)
	clock = base.Add(time.Minute)
	second, _ := s.CreateWuphf(ctx, "second", "a", nil, false)
	// Tie on created_at: later insert must sort first.
	tieA, _ := s.CreateWuphf(ctx, "tie a", "a", nil, false)
	tieB, _ := s.CreateWuphf(ctx, "tie b", "a", nil, false)

	got, err := s.RecentWuphfs(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []int64{tieB.ID, tieA.ID, second.ID, first.ID}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("pos %d: id = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestRecentWuphfs_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.CreateWuphf(ctx, "post", "a", nil, false); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := s.RecentWuphfs(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestIncrement_Concurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWuphf(ctx, "popular", "a", nil, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.LikeWuphf(ctx, w.ID); err != nil {
				t.Errorf("like: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetWuphf(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Likes != n {
		t.Fatalf("likes = %d, want %d", got.Likes, n)
	}
}

func TestIncrement_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LikeWuphf(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("like: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Rewuphf(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rewuphf: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetWuphf(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: err = %v, want ErrNotFound", err)
	}
	if _, err := s.AddReply(ctx, 99999, "hi", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reply: err = %v, want ErrNotFound", err)
	}
}

func TestChannels_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWuphf(ctx, "hi", "a", []string{"Email", "SMS", "Fax"}, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetWuphf(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Channels) != 3 || got.Channels[0] != "Email" || got.Channels[1] != "SMS" || got.Channels[2] != "Fax" {
		t.Fatalf("channels = %v", got.Channels)
	}
	if !got.Urgent {
		t.Fatalf("urgent flag lost")
	}
}

func TestReplies_CascadeDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWuphf(ctx, "parent", "a", nil, false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r1, err := s.AddReply(ctx, w.ID, "first!", "b")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if r1.WuphfID != w.ID {
		t.Fatalf("reply parent = %d, want %d", r1.WuphfID, w.ID)
	}
	if _, err := s.AddReply(ctx, w.ID, "second", ""); err != nil {
		t.Fatalf("reply: %v", err)
	}

	got, err := s.GetWuphf(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(got.Replies))
	}
	if got.Replies[1].AuthorName != "Anonymous" {
		t.Fatalf("reply author = %q, want Anonymous", got.Replies[1].AuthorName)
	}

	if err := s.DeleteWuphf(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM replies WHERE wuphf_id = ?`, w.ID).Scan(&n); err != nil {
		t.Fatalf("count replies: %v", err)
	}
	if n != 0 {
		t.Fatalf("replies survived cascade: %d", n)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := &catalogs.Seed{
		Channels: []catalogs.Channel{{Name: "Email", Description: "mail", Active: true}},
		Users:    []catalogs.User{{Username: "RyanTheWUPHF", Email: "ryan@wuphf.com"}},
		Wuphfs: []catalogs.SeedWuphf{
			{Content: "older", Author: "a", Likes: 3, AgeMinutes: 30},
			{Content: "newer", Author: "b", AgeMinutes: 5},
		},
	}
	if err := s.SeedIfEmpty(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Second run is a no-op.
	if err := s.SeedIfEmpty(ctx, seed); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1 (seed must be once)", len(users))
	}
	channels, err := s.Channels(ctx)
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "Email" {
		t.Fatalf("channels = %v", channels)
	}

	recent, err := s.RecentWuphfs(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "newer" || recent[1].Content != "older" {
		t.Fatalf("unexpected seeded feed: %+v", recent)
	}
	if recent[1].Likes != 3 {
		t.Fatalf("seeded likes = %d, want 3", recent[1].Likes)
	}
}
