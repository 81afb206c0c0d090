package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/storage"
)

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string

	QualificationCount int
	Points             models.PointSystem

	R2 storage.R2Config
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	qualify, err := intEnv("DEFAULT_QUALIFICATION_COUNT", 3)
	if err != nil {
		return nil, err
	}
	if qualify < 0 {
		return nil, fmt.Errorf("DEFAULT_QUALIFICATION_COUNT cannot be negative, got %d", qualify)
	}

	defaults := models.DefaultPointSystem()
	var points models.PointSystem
	if points.Win, err = intEnv("POINTS_PER_WIN", defaults.Win); err != nil {
		return nil, err
	}
	if points.Draw, err = intEnv("POINTS_PER_DRAW", defaults.Draw); err != nil {
		return nil, err
	}
	if points.Loss, err = intEnv("POINTS_PER_LOSS", defaults.Loss); err != nil {
		return nil, err
	}
	if points.Win < 0 || points.Draw < 0 || points.Loss < 0 {
		return nil, fmt.Errorf("points per result cannot be negative, got %d/%d/%d", points.Win, points.Draw, points.Loss)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		QualificationCount: qualify,
		Points:             points,
		R2: storage.R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
