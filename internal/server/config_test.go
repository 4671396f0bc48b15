package server

import (
	"testing"

	"github.com/eugenekravchuk/agriculture-losses/internal/config"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(config.ServerConfig{})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("expected default max upload size, got %d", cfg.UploadSizeBytes())
	}
}

func TestNewConfigOverrides(t *testing.T) {
	cfg, err := NewConfig(config.ServerConfig{Address: "127.0.0.1:9000", MaxUploadSize: "2M"})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max upload override, got %d", cfg.UploadSizeBytes())
	}

	cfg.SetUploadSizeBytes(4096)
	if cfg.UploadSizeBytes() != 4096 || cfg.MaxUploadSize != "4096" {
		t.Fatalf("SetUploadSizeBytes() did not apply, got %d / %s", cfg.UploadSizeBytes(), cfg.MaxUploadSize)
	}
	cfg.SetUploadSizeBytes(0)
	if cfg.UploadSizeBytes() != 4096 {
		t.Fatalf("SetUploadSizeBytes(0) should be ignored, got %d", cfg.UploadSizeBytes())
	}
}

func TestNewConfigInvalidSize(t *testing.T) {
	if _, err := NewConfig(config.ServerConfig{MaxUploadSize: "invalid"}); err == nil {
		t.Fatal("expected error for invalid size but got nil")
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"2G":        2 * 1024 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	for _, bad := range []string{"1TB", "abc", "99999999999G"} {
		if _, err := ParseSize(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
