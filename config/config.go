package config

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Settings holds the process configuration, read from the environment and an optional .env file.
type Settings struct {
	Port               string
	DBDriver           string
	DBDSN              string
	LogLevel           string
	LogFormat          string
	FrontendURL        string
	UploadDir          string
	UseGCS             bool
	GCSBucket          string
	GCSCredentials     string
	IrrigationFlowRate float64
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "garden.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("use_gcs", false)
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("google_application_credentials", "")
	v.SetDefault("irrigation_flow_rate", 3.0)
}

// Load reads .env (if present) and the environment. Keys are the upper-case setting names,
// e.g. DB_DSN or FRONTEND_URL.
func Load(v *viper.Viper) (*Settings, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	s := &Settings{
		Port:               v.GetString("port"),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		DBDSN:              v.GetString("db_dsn"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		FrontendURL:        v.GetString("frontend_url"),
		UploadDir:          v.GetString("upload_dir"),
		UseGCS:             v.GetBool("use_gcs"),
		GCSBucket:          v.GetString("gcs_bucket"),
		GCSCredentials:     v.GetString("google_application_credentials"),
		IrrigationFlowRate: v.GetFloat64("irrigation_flow_rate"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings the server cannot start with.
func (s *Settings) Validate() error {
	switch s.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", s.DBDriver)
	}
	if s.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if s.UseGCS && s.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required when USE_GCS is set")
	}
	if s.IrrigationFlowRate <= 0 {
		return fmt.Errorf("IRRIGATION_FLOW_RATE must be positive, got %v", s.IrrigationFlowRate)
	}
	return nil
}

// Connect opens the configured database.
func Connect(s *Settings, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "postgres":
		dialector = postgres.Open(s.DBDSN)
	default:
		dialector = sqlite.Open(s.DBDSN)
	}

	level := gormlogger.Warn
	if s.LogLevel == "debug" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if s.DBDriver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connected", zap.String("driver", s.DBDriver))
	return db, nil
}
