package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	TelegramConfig struct {
		// BaseURL is the Bot API prefix the bot token gets appended to,
		// e.g. https://api.telegram.org/bot
		BaseURL  string
		BotToken string
		Timeout  time.Duration
	}

	SchedulerConfig struct {
		PollInterval time.Duration
		JobTimeout   time.Duration
	}

	Config struct {
		Env              string
		AppName          string
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		TimeZone         string
		WebAppURL        string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string
		WorkDir          string

		Server    ServerConfig
		Database  DatabaseConfig
		Telegram  TelegramConfig
		Scheduler SchedulerConfig

		loc *time.Location
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "PollClass")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w#0e^bz)o5qu+2!_9m$h7(x&4dk8c*r3f-yj6vgn1spt5la%i")
	conf.SetDefault("timeZone", "America/Sao_Paulo")
	conf.SetDefault("webAppURL", "https://poll-miniapp.vercel.app/")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("jwtExpirationDelta", 2*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugHost", "localhost:4000")
	conf.SetDefault("shutdownTimeout", 5*time.Second)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "pollclass")
	conf.SetDefault("dbUser", "pollclass")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbDisableTLS", true)
	conf.SetDefault("telegramAPI", "https://api.telegram.org/bot")
	conf.SetDefault("telegramBotToken", "")
	conf.SetDefault("telegramTimeout", 10*time.Second)
	conf.SetDefault("schedulerPollInterval", 15*time.Second)
	conf.SetDefault("schedulerJobTimeout", time.Minute)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		SecretKey:        conf.GetString("secretKey"),
		TimeZone:         conf.GetString("timeZone"),
		WebAppURL:        conf.GetString("webAppURL"),
		DefaultFromEmail: mail.Address{Address: conf.GetString("defaultFromEmail")},
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		WorkDir:          Getwd(),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Telegram: TelegramConfig{
			BaseURL:  conf.GetString("telegramAPI"),
			BotToken: conf.GetString("telegramBotToken"),
			Timeout:  conf.GetDuration("telegramTimeout"),
		},
		Scheduler: SchedulerConfig{
			PollInterval: conf.GetDuration("schedulerPollInterval"),
			JobTimeout:   conf.GetDuration("schedulerJobTimeout"),
		},
	}
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Location resolves the configured timezone; scheduled quiz timestamps are
// interpreted in this location.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			log.Printf("config: unknown timezone %q, falling back to UTC", c.TimeZone)
			loc = time.UTC
		}
		c.loc = loc
	}
	return c.loc
}
