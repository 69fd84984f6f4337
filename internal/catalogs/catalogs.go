package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Seed is the read-only reference data applied once at startup: the
// notification-channel catalog, demo user profiles and sample wuphfs.
type Seed struct {
	Channels []Channel   `yaml:"channels"`
	Users    []User      `yaml:"users"`
	Wuphfs   []SeedWuphf `yaml:"wuphfs"`

	// Digest is the sha256 of the raw seed file, reported in WELCOME so
	// clients can detect a changed catalog.
	Digest string `yaml:"-"`
}

type Channel struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	IconClass   string `yaml:"icon_class" json:"icon_class"`
	Active      bool   `yaml:"active" json:"active"`
}

type User struct {
	Username    string `yaml:"username" json:"username"`
	Email       string `yaml:"email" json:"email"`
	PhoneNumber string `yaml:"phone_number" json:"phone_number"`

	FacebookID    string `yaml:"facebook_id,omitempty" json:"facebook_id,omitempty"`
	TwitterHandle string `yaml:"twitter_handle,omitempty" json:"twitter_handle,omitempty"`

	PrinterNotifications bool `yaml:"printer_notifications" json:"printer_notifications"`
	SoundNotifications   bool `yaml:"sound_notifications" json:"sound_notifications"`
	EmailNotifications   bool `yaml:"email_notifications" json:"email_notifications"`
	SmsNotifications     bool `yaml:"sms_notifications" json:"sms_notifications"`

	WuphfsSent     int `yaml:"wuphfs_sent" json:"wuphfs_sent"`
	WuphfsReceived int `yaml:"wuphfs_received" json:"wuphfs_received"`
}

// SeedWuphf is a sample post. AgeMinutes places it in the past relative to
// server start so the recent feed has a stable order.
type SeedWuphf struct {
	Content    string   `yaml:"content"`
	Author     string   `yaml:"author"`
	Likes      int      `yaml:"likes"`
	Rewuphfs   int      `yaml:"rewuphfs"`
	Channels   []string `yaml:"channels"`
	Urgent     bool     `yaml:"urgent"`
	AgeMinutes int      `yaml:"age_minutes"`
}

func Load(configDir string) (*Seed, error) {
	path := filepath.Join(configDir, "seed.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Seed
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("seed.yaml: %w", err)
	}
	if len(s.Channels) == 0 {
		return nil, fmt.Errorf("seed.yaml: no channels defined")
	}
	sum := sha256.Sum256(raw)
	s.Digest = hex.EncodeToString(sum[:])
	return &s, nil
}
