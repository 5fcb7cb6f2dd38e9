package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	Port             string
	DBDSN            string
	RMQURL           string
	Queue            string
	ReportTZ         *time.Location
	ReactivationDays int
}

type WorkerConfig struct {
	DBDSN       string
	RMQURL      string
	Queue       string
	ReportTZ    *time.Location
	MaxRetries  int
	MetricsPort string
}

var (
	API    APIConfig
	Worker WorkerConfig
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("required env %s is not set", k)
	}
	return v
}

// LoadLocation resolves the reporting time zone. Send dates are bucketed in
// it, so API and worker must agree on it.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TZ %q: %w", name, err)
	}
	return loc, nil
}

func mustLocation() *time.Location {
	loc, err := LoadLocation(getenv("REPORT_TZ", "UTC"))
	if err != nil {
		log.Fatal(err)
	}
	return loc
}

func loadDotEnv() { _ = godotenv.Load() }

func MustLoadAPI() {
	loadDotEnv()
	API = APIConfig{
		Port:             getenv("PORT", "8080"),
		DBDSN:            mustEnv("DB_DSN"),
		RMQURL:           mustEnv("RMQ_URL"),
		Queue:            getenv("QUEUE", "send_events"),
		ReportTZ:         mustLocation(),
		ReactivationDays: getenvInt("REACTIVATION_DAYS", 30),
	}
	if API.ReactivationDays < 0 {
		log.Fatalf("REACTIVATION_DAYS must be >= 0, got %d", API.ReactivationDays)
	}
}

func MustLoadWorker() {
	loadDotEnv()
	Worker = WorkerConfig{
		DBDSN:       mustEnv("DB_DSN"),
		RMQURL:      mustEnv("RMQ_URL"),
		Queue:       getenv("QUEUE", "send_events"),
		ReportTZ:    mustLocation(),
		MaxRetries:  getenvInt("MAX_RETRIES", 3),
		MetricsPort: getenv("METRICS_PORT", "9091"),
	}
}
