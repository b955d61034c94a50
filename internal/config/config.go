package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds everything the server reads from the environment.
type AppConfig struct {
	Port              string
	MongoURI          string
	MongoDatabase     string
	JWTSecret         string
	JWTTTL            time.Duration
	StudentAppBaseURL string
	AllowedOrigins    []string
	LogLevel          string
	LogFormat         string
	AuthRateLimit     float64
	UploadMaxBytes    int64

	Recommender RecommenderConfig
	Mail        MailConfig

	AnnouncementPollInterval time.Duration
}

type RecommenderConfig struct {
	Command       string
	Script        string
	Timeout       time.Duration
	MaxConcurrent int64
}

type MailConfig struct {
	Provider     string // none, resend or smtp
	From         string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("MONGO_DATABASE", "eventide")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("STUDENT_APP_BASE_URL", "http://localhost:8081")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	v.SetDefault("RECOMMENDER_COMMAND", "python")
	v.SetDefault("RECOMMENDER_SCRIPT", "recommendation_project/get_recommendations.py")
	v.SetDefault("RECOMMENDER_TIMEOUT", "30s")
	v.SetDefault("RECOMMENDER_MAX_CONCURRENT", 2)
	v.SetDefault("MAIL_PROVIDER", "none")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ANNOUNCEMENT_POLL_INTERVAL", "1m")
}

// Load reads the configuration from the process environment.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:              v.GetString("PORT"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		StudentAppBaseURL: strings.TrimRight(v.GetString("STUDENT_APP_BASE_URL"), "/"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		AuthRateLimit:     v.GetFloat64("AUTH_RATE_LIMIT"),
		UploadMaxBytes:    v.GetInt64("UPLOAD_MAX_BYTES"),
		Recommender: RecommenderConfig{
			Command:       v.GetString("RECOMMENDER_COMMAND"),
			Script:        v.GetString("RECOMMENDER_SCRIPT"),
			Timeout:       v.GetDuration("RECOMMENDER_TIMEOUT"),
			MaxConcurrent: v.GetInt64("RECOMMENDER_MAX_CONCURRENT"),
		},
		Mail: MailConfig{
			Provider:     strings.ToLower(v.GetString("MAIL_PROVIDER")),
			From:         v.GetString("FROM_EMAIL"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUsername: v.GetString("SMTP_USERNAME"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
		},
		AnnouncementPollInterval: v.GetDuration("ANNOUNCEMENT_POLL_INTERVAL"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be a positive duration")
	}
	if cfg.Recommender.MaxConcurrent <= 0 {
		cfg.Recommender.MaxConcurrent = 1
	}
	if cfg.AnnouncementPollInterval <= 0 {
		cfg.AnnouncementPollInterval = time.Minute
	}
	if err := cfg.Mail.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m MailConfig) validate() error {
	switch m.Provider {
	case "", "none":
		return nil
	case "resend":
		if m.ResendAPIKey == "" || m.From == "" {
			return errors.New("RESEND_API_KEY and FROM_EMAIL are required for the resend mail provider")
		}
	case "smtp":
		if m.SMTPHost == "" || m.From == "" {
			return errors.New("SMTP_HOST and FROM_EMAIL are required for the smtp mail provider")
		}
	default:
		return errors.New("MAIL_PROVIDER must be one of none, resend, smtp")
	}
	return nil
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
