package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	MaxGuessesPerRound       int
	MinPlayers               int
	MaxPlayers               int
	EmptyListItems           int
	MinPasswordLength        int
	JWTSecret                string
	SessionTTLHours          int
	PublicBaseURL            string
	AllowedOrigins           []string
	MirrorQueueSize          int
	JanitorIntervalSeconds   int
	RoundIdleMinutes         int
	AutoMigrate              bool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	ExportBucket             string
	ExportEndpoint           string
	ExportRegion             string
	ExportAccessKeyID        string
	ExportSecretAccessKey    string
}

func Default() Config {
	return Config{
		Port:                     "8080",
		MaxGuessesPerRound:       10,
		MinPlayers:               3,
		MaxPlayers:               12,
		EmptyListItems:           10,
		MinPasswordLength:        8,
		JWTSecret:                "top-ten-dev-secret",
		SessionTTLHours:          24,
		PublicBaseURL:            "http://localhost:8080",
		AllowedOrigins:           []string{"http://localhost:8080"},
		MirrorQueueSize:          256,
		JanitorIntervalSeconds:   300,
		RoundIdleMinutes:         180,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		ExportRegion:             "auto",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("MAX_GUESSES_PER_ROUND"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxGuessesPerRound = value
		}
	}
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 1 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("JWT_SECRET"); raw != "" {
		cfg.JWTSecret = raw
	}
	if raw := os.Getenv("SESSION_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SessionTTLHours = value
		}
	}
	if raw := os.Getenv("PUBLIC_BASE_URL"); raw != "" {
		cfg.PublicBaseURL = strings.TrimSuffix(raw, "/")
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("MIRROR_QUEUE_SIZE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MirrorQueueSize = value
		}
	}
	if raw := os.Getenv("JANITOR_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.JanitorIntervalSeconds = value
		}
	}
	if raw := os.Getenv("ROUND_IDLE_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RoundIdleMinutes = value
		}
	}
	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.AutoMigrate = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("EXPORT_BUCKET"); raw != "" {
		cfg.ExportBucket = raw
	}
	if raw := os.Getenv("EXPORT_ENDPOINT"); raw != "" {
		cfg.ExportEndpoint = raw
	}
	if raw := os.Getenv("EXPORT_REGION"); raw != "" {
		cfg.ExportRegion = raw
	}
	if raw := os.Getenv("EXPORT_ACCESS_KEY_ID"); raw != "" {
		cfg.ExportAccessKeyID = raw
	}
	if raw := os.Getenv("EXPORT_SECRET_ACCESS_KEY"); raw != "" {
		cfg.ExportSecretAccessKey = raw
	}
	return cfg
}
