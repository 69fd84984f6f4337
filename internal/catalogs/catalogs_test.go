package catalogs

import (
	"path/filepath"
	"testing"
)

func TestLoad_RepoSeed(t *testing.T) {
	seed, err := Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seed.Channels) != 8 {
		t.Fatalf("channels = %d, want 8", len(seed.Channels))
	}
	if seed.Channels[0].Name != "Email" || seed.Channels[7].Name != "Fax" {
		t.Fatalf("channel order changed: %v", seed.Channels)
	}
	if len(seed.Users) != 5 {
		t.Fatalf("users = %d, want 5", len(seed.Users))
	}
	if len(seed.Wuphfs) != 5 {
		t.Fatalf("wuphfs = %d, want 5", len(seed.Wuphfs))
	}
	if seed.Digest == "" {
		t.Fatalf("expected seed digest")
	}

	again, err := Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Digest != seed.Digest {
		t.Fatalf("digest not stable")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing seed.yaml")
	}
}
