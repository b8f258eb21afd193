package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	AttendanceConfig struct {
		// BatchSize caps the number of ledger rows written per statement / sub-batch.
		BatchSize         int
		MaxRangeDays      int
		OverrideCacheTTL  time.Duration
		CohortWorkers     int
		ReconcileInterval time.Duration
	}

	// SemesterConfig holds the compiled-in term boundaries used when no override is active.
	SemesterConfig struct {
		SpringStart MonthDay
		SpringEnd   MonthDay
		FallStart   MonthDay
		FallEnd     MonthDay
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		Location     *time.Location
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Attendance   AttendanceConfig
		Semester     SemesterConfig
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Presence")
	v.SetDefault("build", "dev")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "presence")
	v.SetDefault("dbUser", "presence")
	v.SetDefault("dbPassword", "presence")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("dbMaxOpenConns", 20)

	v.SetDefault("attendanceBatchSize", 500)
	v.SetDefault("attendanceMaxRangeDays", 366)
	v.SetDefault("attendanceOverrideCacheTTL", 5*time.Minute)
	v.SetDefault("attendanceCohortWorkers", 8)
	v.SetDefault("attendanceReconcileInterval", 5*time.Minute)

	v.SetDefault("semesterSpringStart", "01-01")
	v.SetDefault("semesterSpringEnd", "06-30")
	v.SetDefault("semesterFallStart", "08-01")
	v.SetDefault("semesterFallEnd", "12-31")
	return v
}

// NewConfig reads the configuration from the environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
// Variables are looked up with the environment as prefix, eg. PROD_DBHOST.
func NewConfig() *Config {
	v := newViper()

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf, err := configFromViper(v, env)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func configFromViper(v *viper.Viper, env string) (*Config, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, errors.Wrap(err, "loading timezone")
	}

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Location:     loc,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
			MaxOpenConns:  v.GetInt("dbMaxOpenConns"),
		},
		Attendance: AttendanceConfig{
			BatchSize:         v.GetInt("attendanceBatchSize"),
			MaxRangeDays:      v.GetInt("attendanceMaxRangeDays"),
			OverrideCacheTTL:  v.GetDuration("attendanceOverrideCacheTTL"),
			CohortWorkers:     v.GetInt("attendanceCohortWorkers"),
			ReconcileInterval: v.GetDuration("attendanceReconcileInterval"),
		},
	}

	bounds := []struct {
		key string
		dst *MonthDay
	}{
		{"semesterSpringStart", &conf.Semester.SpringStart},
		{"semesterSpringEnd", &conf.Semester.SpringEnd},
		{"semesterFallStart", &conf.Semester.FallStart},
		{"semesterFallEnd", &conf.Semester.FallEnd},
	}
	for _, b := range bounds {
		md, err := ParseMonthDay(v.GetString(b.key))
		if err != nil {
			return nil, errors.Wrap(err, b.key)
		}
		*b.dst = md
	}
	return conf, nil
}

// NewTestConfig returns the configuration used by tests: UTC, no external services.
func NewTestConfig() *Config {
	v := newViper()
	v.Set("testMode", true)
	v.Set("debug", false)
	conf, err := configFromViper(v, "TEST")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}
