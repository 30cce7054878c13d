package config

import "fmt"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLiteDSN = "clinicseed.db"
)

// Environment variables the CLI flags fall back to.
const (
	EnvDriver      = "CLINICSEED_DRIVER"
	EnvDSN         = "CLINICSEED_DSN"
	EnvData        = "CLINICSEED_DATA"
	EnvMetricsFile = "CLINICSEED_METRICS_FILE"
)

// Config is the resolved seeder configuration, after flags and their
// environment fallbacks have been applied.
type Config struct {
	Driver      string
	DSN         string
	DataPath    string // empty means the built-in data set
	MetricsFile string
}

// WithDefaults fills what the operator left unset. The sqlite DSN default
// only applies once the final driver is known; postgres has none.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.DSN == "" && c.Driver == DriverSQLite {
		c.DSN = DefaultSQLiteDSN
	}
	return c
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported driver %q (want %s or %s)", c.Driver, DriverSQLite, DriverPostgres)
	}
	if c.DSN == "" {
		return fmt.Errorf("a dsn is required for the %s driver", c.Driver)
	}
	return nil
}
