package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

// Scorekeeper configures the terminal operator console.
type Scorekeeper struct {
	APIURL                  string
	Token                   string
	Timeout                 time.Duration
	ClockCheckpointInterval int
	CircuitEnabled          bool
	CircuitFailureCount     int
	CircuitOpenTimeout      time.Duration
	CircuitHalfOpenMaxReq   int
	LogLevel                logging.Level
}

func LoadScorekeeper() (Scorekeeper, error) {
	_ = godotenv.Load()

	apiURL := strings.TrimSpace(getEnv("SCOREKEEPER_API_URL", "http://localhost:8080"))
	if apiURL == "" {
		return Scorekeeper{}, fmt.Errorf("SCOREKEEPER_API_URL cannot be empty")
	}

	timeout, err := time.ParseDuration(getEnv("SCOREKEEPER_TIMEOUT", "10s"))
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse SCOREKEEPER_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return Scorekeeper{}, fmt.Errorf("SCOREKEEPER_TIMEOUT must be > 0")
	}

	checkpoint, err := getEnvAsInt("CLOCK_CHECKPOINT_INTERVAL", 10)
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse CLOCK_CHECKPOINT_INTERVAL: %w", err)
	}
	if checkpoint < 1 {
		return Scorekeeper{}, fmt.Errorf("CLOCK_CHECKPOINT_INTERVAL must be >= 1")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("SCOREKEEPER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse SCOREKEEPER_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("SCOREKEEPER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse SCOREKEEPER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return Scorekeeper{}, fmt.Errorf("SCOREKEEPER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv("SCOREKEEPER_CIRCUIT_OPEN_TIMEOUT", "10s"))
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse SCOREKEEPER_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Scorekeeper{}, fmt.Errorf("SCOREKEEPER_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("SCOREKEEPER_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Scorekeeper{}, fmt.Errorf("parse SCOREKEEPER_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return Scorekeeper{}, fmt.Errorf("SCOREKEEPER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return Scorekeeper{
		APIURL:                  apiURL,
		Token:                   strings.TrimSpace(getEnv("SCOREKEEPER_TOKEN", "")),
		Timeout:                 timeout,
		ClockCheckpointInterval: checkpoint,
		CircuitEnabled:          circuitEnabled,
		CircuitFailureCount:     circuitFailureCount,
		CircuitOpenTimeout:      circuitOpenTimeout,
		CircuitHalfOpenMaxReq:   circuitHalfOpenMaxReq,
		LogLevel:                parseLogLevel(getEnv("SCOREKEEPER_LOG_LEVEL", "warn")),
	}, nil
}
