package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"nutriplan/internal/logging"
)

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Variables already set are left alone, and missing files are
// skipped. With no paths, ./.env is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logging.ConfigDebug("no env file at %s", p)
				continue
			}
			return err
		}
		logging.ConfigDebug("loaded env file %s", p)
	}
	return nil
}
