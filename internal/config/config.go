package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"

	ClockLayout = "15:04:05"
)

// Config: вся конфигурация приложения
type Config struct {
	Mode     string         `mapstructure:"mode"`
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"db"`
	App      AppConfig      `mapstructure:"app"`
	CheckIn  CheckInConfig  `mapstructure:"checkin"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Purge    PurgeConfig    `mapstructure:"purge"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	HTTPS bool   `mapstructure:"https"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type AppConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location разбирает app.timezone; "Local": часовой пояс процесса
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}

type CheckInConfig struct {
	Weekdays      []string `mapstructure:"weekdays"`
	OpensAt       string   `mapstructure:"opens_at"`
	ClosesAt      string   `mapstructure:"closes_at"`
	MaxCallNumber int      `mapstructure:"max_call_number"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParsedWeekdays переводит имена дней в time.Weekday
func (c CheckInConfig) ParsedWeekdays() ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(c.Weekdays))
	for _, name := range c.Weekdays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("checkin.weekdays: unknown weekday %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

// Window возвращает границы окна как смещения от полуночи
func (c CheckInConfig) Window() (opens, closes time.Duration, err error) {
	if opens, err = parseClock(c.OpensAt); err != nil {
		return 0, 0, fmt.Errorf("checkin.opens_at: %w", err)
	}
	if closes, err = parseClock(c.ClosesAt); err != nil {
		return 0, 0, fmt.Errorf("checkin.closes_at: %w", err)
	}
	if closes < opens {
		return 0, 0, fmt.Errorf("checkin window closes (%s) before it opens (%s)", c.ClosesAt, c.OpensAt)
	}
	return opens, closes, nil
}

func parseClock(s string) (time.Duration, error) {
	layout := ClockLayout
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ArchiveConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

type PurgeConfig struct {
	Schedule      string `mapstructure:"schedule"`
	SnapshotFirst bool   `mapstructure:"snapshot_first"`
}

type SeedStudent struct {
	Name       string `mapstructure:"name"`
	CallNumber int    `mapstructure:"call_number"`
	CPF4       string `mapstructure:"cpf4"`
}

type SeedConfig struct {
	Students []SeedStudent `mapstructure:"students"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultSeed: ученики-примеры, которые вставляются в пустой реестр
func DefaultSeed() []SeedStudent {
	return []SeedStudent{
		{Name: "Thiago Silva", CallNumber: 1, CPF4: "1995"},
		{Name: "Victor Pereira", CallNumber: 2, CPF4: "5678"},
		{Name: "Isaque Alves", CallNumber: 3, CPF4: "1379"},
		{Name: "Eduardo Carvalho", CallNumber: 4, CPF4: "8299"},
	}
}

// Load читает конфиг: env > файл > значения по умолчанию
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("mode", ModeDev)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.https", false)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.max_age", "168h")

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.path", "data/presencas.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")

	v.SetDefault("app.timezone", "America/Sao_Paulo")

	v.SetDefault("checkin.weekdays", []string{"saturday", "sunday"})
	v.SetDefault("checkin.opens_at", "13:00:00")
	v.SetDefault("checkin.closes_at", "15:15:00")
	v.SetDefault("checkin.max_call_number", 30)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")

	v.SetDefault("archive.dir", "exports")
	v.SetDefault("archive.format", FormatPDF)

	v.SetDefault("purge.schedule", "59 23 * * 5")
	v.SetDefault("purge.snapshot_first", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PRESENCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Пустой список в файле отключает начальные данные, отсутствие ключа: включает
	if !v.IsSet("seed.students") {
		cfg.Seed.Students = DefaultSeed()
	}

	// Привычные переменные окружения хостингов
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет ключевые параметры
func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("config: mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("config: db.dsn (or DATABASE_URL) is required for postgres")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("config: db.path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.Database.Driver)
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("config: app.timezone: %w", err)
	}
	if _, err := c.CheckIn.ParsedWeekdays(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, _, err := c.CheckIn.Window(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CheckIn.MaxCallNumber < 1 {
		return fmt.Errorf("config: checkin.max_call_number must be positive")
	}
	if c.Admin.Username == "" {
		return fmt.Errorf("config: admin.username must not be empty")
	}
	if c.Archive.Format != FormatPDF && c.Archive.Format != FormatXLSX {
		return fmt.Errorf("config: archive.format must be %q or %q", FormatPDF, FormatXLSX)
	}
	if _, err := cron.ParseStandard(c.Purge.Schedule); err != nil {
		return fmt.Errorf("config: purge.schedule: %w", err)
	}
	if c.Mode == ModeRelease {
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("config: session.secret must be at least 32 characters in release mode")
		}
		if c.Admin.Password == "" {
			return fmt.Errorf("config: admin.password is required in release mode")
		}
	}
	return nil
}
