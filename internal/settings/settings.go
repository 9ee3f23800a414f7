// Package settings holds the CLI flag names and loads .env files into the
// process environment before configuration is read.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
)

const DefaultEnvFileName = ".env"

// LoadEnv loads ~/.env, then envPath if given or else the nearest .env at or
// above the working directory. Variables already set in the environment are
// never overridden. Missing files are not an error.
func LoadEnv(logger *zerolog.Logger, envPath string) error {
	home, err := homedir.Dir()
	if err == nil {
		if err := loadIfExists(filepath.Join(home, DefaultEnvFileName)); err != nil {
			return err
		}
	} else {
		logger.Debug().Err(err).Msg("Could not resolve user home, skipping ~/.env")
	}

	if envPath != "" {
		envPath, err = homedir.Expand(envPath)
		if err != nil {
			return fmt.Errorf("invalid env file path: %w", err)
		}
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("env file %s: %w", envPath, err)
		}
		logger.Debug().Msgf("Loading environment from %s", envPath)
		return godotenv.Load(envPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("error getting working directory: %w", err)
	}
	found, err := findEnvFile(cwd, DefaultEnvFileName)
	if err != nil {
		logger.Debug().Msg("No .env file found, using exported environment only")
		return nil
	}
	logger.Debug().Msgf("Loading environment from %s", found)
	return loadIfExists(found)
}

func loadIfExists(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading file from %s: %w", path, err)
	}
	return nil
}

func findEnvFile(startDir, fileName string) (string, error) {
	dir := startDir

	for {
		filePath := filepath.Join(dir, fileName)

		if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
			return filePath, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			break
		}
		dir = parentDir
	}
	return "", fmt.Errorf("file %s not found in any parent directory starting from %s", fileName, startDir)
}
