package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

// Email backends
const (
	EmailBackendConsole  = "console"
	EmailBackendSendgrid = "sendgrid"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	EmailConfig struct {
		Backend        string
		SendgridAPIKey string
	}

	RedisConfig struct {
		URL           string
		LoginAttempts int64
		LoginWindow   time.Duration
	}
)

func (c ServerConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func (c DatabaseConfig) InMemory() bool { return c.Engine == "memory" }

// NewConfig loads the configuration from the environment once, at start-up.
// Variables are prefixed with the value of ENV (DEV by default), e.g. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Academia")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Academia <noreply@localhost>")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "academia")
	v.SetDefault("database.user", "academia")
	v.SetDefault("email.backend", EmailBackendConsole)
	v.SetDefault("redis.loginAttempts", 5)
	v.SetDefault("redis.loginWindow", 15*time.Minute)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		DefaultFromEmail: *from,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Email: EmailConfig{
			Backend:        v.GetString("email.backend"),
			SendgridAPIKey: v.GetString("email.sendgridAPIKey"),
		},
		Redis: RedisConfig{
			URL:           v.GetString("redis.url"),
			LoginAttempts: v.GetInt64("redis.loginAttempts"),
			LoginWindow:   v.GetDuration("redis.loginWindow"),
		},
	}
	if err := conf.Check(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Check guards the values the app cannot run without.
func (c *Config) Check() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.StringNotEmpty(c.DefaultFromEmail.Address, "defaultFromEmail"),
		vala.StringNotEmpty(c.Database.Engine, "database.engine"),
	).Check()
	if err != nil {
		return err
	}

	switch c.Email.Backend {
	case EmailBackendConsole:
	case EmailBackendSendgrid:
		if err = vala.BeginValidation().Validate(
			vala.StringNotEmpty(c.Email.SendgridAPIKey, "email.sendgridAPIKey"),
		).Check(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown email backend %q", c.Email.Backend)
	}

	if !c.Database.InMemory() {
		return vala.BeginValidation().Validate(
			vala.StringNotEmpty(c.Database.Name, "database.name"),
			vala.StringNotEmpty(c.Database.Host, "database.host"),
		).Check()
	}
	return nil
}
