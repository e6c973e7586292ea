// Package config loads the racesim configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/race"
)

// Config holds every setting racesim reads from its YAML file.
type Config struct {
	Agents     AgentsConfig     `yaml:"agents"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
}

// AgentsConfig holds the two competitors.
type AgentsConfig struct {
	A AgentConfig `yaml:"a"`
	B AgentConfig `yaml:"b"`
}

// AgentConfig describes one competitor.
type AgentConfig struct {
	// Name is only used in reports.
	Name string `yaml:"name"`

	// Power is the agent's θ. Must be >= 0, and at least one agent must be > 0.
	Power float64 `yaml:"power"`
}

// SimulationConfig holds the parameters shared by every race of a run.
type SimulationConfig struct {
	// Rigidity is β, the shared damping factor (>= 0).
	Rigidity float64 `yaml:"rigidity"`

	// NoiseScale is ω, the standard deviation of each step (>= 0).
	NoiseScale float64 `yaml:"noise_scale"`

	// Target is the position both agents race toward (> 0).
	Target float64 `yaml:"target"`

	// Trials is the number of races per run (> 0).
	Trials int `yaml:"trials"`

	// Seed makes runs reproducible. Omit it to draw a seed from the clock.
	Seed *int64 `yaml:"seed"`

	// Workers is the number of goroutines simulating races.
	// 0 or 1 runs sequentially.
	Workers int `yaml:"workers"`

	// MaxTicks bounds a single race. 0 uses the built-in bound.
	MaxTicks int `yaml:"max_ticks"`
}

// DatabaseConfig selects and configures the results store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `yaml:"conn_max_lifetime_seconds"`
}

// WebSocketConfig holds settings for the remote runner.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect.
	// Empty list enforces same-origin policy. "*" allows all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum request size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// MaxTrials caps the trial count of a single remote request. 0 = no cap.
	MaxTrials int `yaml:"max_trials"`

	// MaxWorkers caps the workers of a remote request; larger requests are
	// clamped. 0 = runtime.NumCPU().
	MaxWorkers int `yaml:"max_workers"`

	MaxConnectionsPerIP int `yaml:"max_connections_per_ip"` // 0 = unlimited
	MaxConnections      int `yaml:"max_connections"`        // 0 = unlimited
}

// DefaultConfig returns the reference scenario: a slightly stronger agent A,
// moderate rigidity, unit noise and 10,000 seeded trials.
func DefaultConfig() *Config {
	seed := int64(123)
	pg := database.DefaultPostgresConfig()

	return &Config{
		Agents: AgentsConfig{
			A: AgentConfig{Name: "Player 1", Power: 1.10},
			B: AgentConfig{Name: "Player 2", Power: 1.00},
		},
		Simulation: SimulationConfig{
			Rigidity:   0.20,
			NoiseScale: 1.0,
			Target:     5.0,
			Trials:     10_000,
			Seed:       &seed,
			Workers:    1,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/racesim.db",
			Postgres: PostgresConfig{
				Host:                   pg.Host,
				Port:                   pg.Port,
				SSLMode:                pg.SSLMode,
				MaxOpenConns:           pg.MaxOpenConns,
				MaxIdleConns:           pg.MaxIdleConns,
				ConnMaxLifetimeSeconds: int(pg.ConnMaxLifetime / time.Second),
			},
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:      []string{}, // Same-origin only by default
			MaxMessageSize:      4096,
			MaxTrials:           1_000_000,
			MaxWorkers:          0,
			MaxConnectionsPerIP: 4,
			MaxConnections:      64,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults; a malformed one is an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnvOverrides()
			return config, nil
		}
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	config.applyEnvOverrides()
	return config, nil
}

// applyEnvOverrides lets deployments keep database credentials out of the file.
func (c *Config) applyEnvOverrides() {
	if driver := os.Getenv("RACESIM_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if path := os.Getenv("RACESIM_SQLITE_PATH"); path != "" {
		c.Database.SQLitePath = path
	}
	if host := os.Getenv("RACESIM_PG_HOST"); host != "" {
		c.Database.Postgres.Host = host
	}
	if password := os.Getenv("RACESIM_PG_PASSWORD"); password != "" {
		c.Database.Postgres.Password = password
	}
}

// Validate checks the simulation parameters and the database selection.
func (c *Config) Validate() error {
	sim := c.Race()
	if err := sim.Validate(); err != nil {
		return err
	}
	if _, err := race.Normalize(c.AgentA(), c.AgentB(), sim.Rigidity); err != nil {
		return err
	}

	switch database.DialectType(c.Database.Driver) {
	case database.DialectSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
		}
	case database.DialectPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.host and database.postgres.database are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q (want sqlite or postgres)", c.Database.Driver)
	}

	return nil
}

// AgentA returns agent A in the simulator's terms.
func (c *Config) AgentA() race.AgentConfig {
	return race.AgentConfig{Name: c.Agents.A.Name, Power: c.Agents.A.Power}
}

// AgentB returns agent B in the simulator's terms.
func (c *Config) AgentB() race.AgentConfig {
	return race.AgentConfig{Name: c.Agents.B.Name, Power: c.Agents.B.Power}
}

// Race returns the simulation parameters in the simulator's terms.
func (c *Config) Race() race.SimulationConfig {
	s := c.Simulation
	return race.SimulationConfig{
		Rigidity:   s.Rigidity,
		NoiseScale: s.NoiseScale,
		Target:     s.Target,
		Trials:     s.Trials,
		Seed:       s.Seed,
		Workers:    s.Workers,
		MaxTicks:   s.MaxTicks,
	}
}

// Store returns the results store connection settings.
func (c *Config) Store() database.Config {
	pg := c.Database.Postgres
	return database.Config{
		Driver:     c.Database.Driver,
		SQLitePath: c.Database.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            pg.Host,
			Port:            pg.Port,
			User:            pg.User,
			Password:        pg.Password,
			Database:        pg.Database,
			SSLMode:         pg.SSLMode,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(pg.ConnMaxLifetimeSeconds) * time.Second,
		},
	}
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
// A missing Origin header (non-browser client) counts as same-origin.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
