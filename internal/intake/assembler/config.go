// internal/intake/assembler/config.go
package assembler

import "taf-intake/internal/common/config"

type Config struct {
	// MaxPhotoBytes caps the photo reference length. Zero disables the check.
	MaxPhotoBytes int
}

func LoadConfig(cfg config.IntakeConfig) *Config {
	return &Config{
		MaxPhotoBytes: cfg.MaxPhotoBytes,
	}
}
