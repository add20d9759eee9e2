package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
}

// Storage selects the backing store: memory, sqlite or postgres.
type Storage struct {
	Driver     string
	SQLitePath string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCache struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
}

type Race struct {
	DefaultMaxPlayers int
	MaxPlayersLimit   int
	MonotonicProgress bool
}

// Users controls how unknown user ids resolve. Open accepts any id the
// gateway forwards. Seed lists known users as "id:name,id:name".
type Users struct {
	Open bool
	Seed string
}

type Config struct {
	HTTP     HTTPServer
	Storage  Storage
	Postgres Postgres
	Redis    RedisCache
	Race     Race
	Users    Users
	Mode     string
}

const (
	ModeRW = "RW"
	ModeRO = "RO"
)

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := FromEnv()
	log.Printf("%s backend config : %+v\n", logtag, cfg.redacted())
	return cfg
}

// FromEnv builds the config from the current environment only.
func FromEnv() *Config {
	return &Config{
		HTTP:     *newHTTP(),
		Storage:  *newStorage(),
		Postgres: *newPostgres(),
		Redis:    *newRedis(),
		Race:     *newRace(),
		Users:    *newUsers(),
		Mode:     strings.ToUpper(getenv("MODE", ModeRW)),
	}
}

func (c Config) redacted() Config {
	if c.Postgres.Password != "" {
		c.Postgres.Password = "***"
	}
	if c.Redis.Password != "" {
		c.Redis.Password = "***"
	}
	return c
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newStorage() *Storage {
	return &Storage{
		Driver:     strings.ToLower(getenv("STORAGE_DRIVER", "memory")),
		SQLitePath: getenv("SQLITE_PATH", "data/race.db"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "race"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Enabled:  getenvBool("REDIS_ENABLED", false),
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", ""),
	}
}

func newRace() *Race {
	return &Race{
		DefaultMaxPlayers: getenvInt("RACE_DEFAULT_MAX_PLAYERS", 4),
		MaxPlayersLimit:   getenvInt("RACE_MAX_PLAYERS_LIMIT", 16),
		MonotonicProgress: getenvBool("RACE_MONOTONIC_PROGRESS", false),
	}
}

func newUsers() *Users {
	return &Users{
		Open: getenvBool("USERS_OPEN", true),
		Seed: getenv("USERS_SEED", ""),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvInt(key string, defaultValue int) int {
	raw := getenv(key, strconv.Itoa(defaultValue))
	val, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("%s %s is not an integer (%q). Using default value %d\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}

func getenvBool(key string, defaultValue bool) bool {
	raw := getenv(key, strconv.FormatBool(defaultValue))
	val, err := strconv.ParseBool(raw)
	if err != nil {
		fmt.Printf("%s %s is not a boolean (%q). Using default value %t\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}
