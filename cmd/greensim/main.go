package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/cc0ffee/greensim/internal/api"
	"github.com/cc0ffee/greensim/internal/jobs"
	"github.com/cc0ffee/greensim/internal/sim"
	"github.com/cc0ffee/greensim/internal/store"
	"github.com/cc0ffee/greensim/internal/weather"
)

// runConfig drives one-shot mode: a named scenario with either a CSV weather
// file or a location to fetch a forecast for.
type runConfig struct {
	Name       string         `yaml:"name" json:"name"`
	Location   *jobs.Location `yaml:"location" json:"location"`
	Hours      int            `yaml:"hours" json:"hours"`
	WeatherCSV string         `yaml:"weather_csv" json:"weather_csv"`
	Parameters map[string]any `yaml:"parameters" json:"parameters"`
}

func loadRunConfig(path string) (*runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}

	var cfg runConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("run config %s: unsupported extension (want .yaml or .json)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse run config %s: %w", path, err)
	}

	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if cfg.Hours <= 0 {
		cfg.Hours = 24
	}
	return &cfg, nil
}

func runOnce(path string) error {
	cfg, err := loadRunConfig(path)
	if err != nil {
		return err
	}

	params, err := sim.ParamsFromMap(cfg.Parameters)
	if err != nil {
		return err
	}

	var samples []sim.Sample
	switch {
	case cfg.WeatherCSV != "":
		samples, err = weather.LoadCSV(cfg.WeatherCSV)
		if err != nil {
			return err
		}
		log.Printf("loaded %d weather samples from %s", len(samples), cfg.WeatherCSV)
	case cfg.Location != nil:
		client := weather.NewClient()
		samples, err = client.FetchHourly(context.Background(), cfg.Location.Lat, cfg.Location.Lon, cfg.Hours)
		if err != nil {
			return err
		}
		log.Printf("fetched %d-hour forecast for %.3f,%.3f", len(samples), cfg.Location.Lat, cfg.Location.Lon)
	default:
		return &sim.WeatherDataError{Reason: "run config needs either weather_csv or location"}
	}

	results, err := sim.Simulate(samples, params)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return &sim.WeatherDataError{Reason: "weather series is empty"}
	}

	outPath := cfg.Name + "_results.csv"
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()
	if err := gocsv.Marshal(results, f); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	summary := jobs.Summarize(results, params.Dt)
	log.Printf("simulated %d hours: Tin %.1f..%.1f degC (mean %.1f), heater %.1f MJ",
		summary.Hours, summary.TinMin, summary.TinMax, summary.TinMean, summary.HeaterEnergyJ/1e6)
	log.Printf("results written to %s", outPath)
	return nil
}

func main() {
	dbPath := flag.String("db", "data/greensim.db", "path to SQLite database")
	port := flag.String("port", "8080", "HTTP server port")
	workers := flag.Int("workers", 2, "simulation worker count")
	runPath := flag.String("run", "", "run config file (YAML or JSON); simulate once and exit")
	flag.Parse()

	if *runPath != "" {
		if err := runOnce(*runPath); err != nil {
			log.Fatalf("run: %v", err)
		}
		return
	}

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create db directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db, store.DefaultResultTTL)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	manager := jobs.NewManager(st, weather.NewClient(), *workers)
	server := api.NewServer(st, manager, *port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go manager.Run(ctx)

	log.Printf("starting server on :%s", *port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
