// Command seed-content loads the static program content (steps and prayers)
// into Supabase. Re-running it is safe: rows merge on their natural keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/stillwaterhq/stillwater/internal/config"
	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "Path to gateway config file")
		contentDir  = flag.String("content-dir", "./content", "Directory containing content JSON files")
		stepsFile   = flag.String("steps", "steps.json", "Steps content filename")
		prayersFile = flag.String("prayers", "prayers.json", "Prayers content filename")
		timeout     = flag.Duration("timeout", 30*time.Second, "Overall seeding timeout")
	)
	flag.Parse()

	logger := logging.New("seed-content")

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	client, err := database.NewClient(database.Config{
		URL:        cfg.Supabase.URL,
		ServiceKey: cfg.Supabase.ServiceKey,
		Timeout:    cfg.Supabase.Timeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create database client")
	}
	repo := database.NewRepository(client)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	steps, err := readSteps(filepath.Join(*contentDir, *stepsFile))
	if err != nil {
		logger.WithError(err).Fatal("failed to read steps content")
	}
	if err := repo.SeedSteps(ctx, steps); err != nil {
		logger.WithError(err).Fatal("failed to seed steps")
	}
	logger.WithFields(map[string]interface{}{"count": len(steps)}).Info("seeded steps content")

	prayers, err := readPrayers(filepath.Join(*contentDir, *prayersFile))
	if err != nil {
		logger.WithError(err).Fatal("failed to read prayers content")
	}
	if err := repo.SeedPrayers(ctx, prayers); err != nil {
		logger.WithError(err).Fatal("failed to seed prayers")
	}
	logger.WithFields(map[string]interface{}{"count": len(prayers)}).Info("seeded prayer content")
}

func readSteps(path string) ([]database.StepContent, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var steps []database.StepContent
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func readPrayers(path string) ([]database.Prayer, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var prayers []database.Prayer
	if err := json.Unmarshal(data, &prayers); err != nil {
		return nil, err
	}
	return prayers, nil
}
