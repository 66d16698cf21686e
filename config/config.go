package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Dashboard  DashboardConfig
	Twilio     TwilioConfig
	Cloudinary CloudinaryConfig
	Zapier     ZapierConfig
	WebSocket  WebSocketConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	URL string
	DB  int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// DashboardConfig holds the single operator credential pair the CRM
// dashboard logs in with.
type DashboardConfig struct {
	User     string
	Password string
}

// InboxAccount is one Twilio account: the credentials plus the
// whatsapp-formatted sender number for that inbox.
type InboxAccount struct {
	SID   string
	Token string
	From  string
}

// BroadcastAccount is one of the template-broadcast ("difusion") Twilio
// accounts, each with its own ventas/soporte sender numbers.
type BroadcastAccount struct {
	SID           string
	Token         string
	NumberVentas  string
	NumberSoporte string
}

type TwilioConfig struct {
	// Inboxes maps inbox id ("ventas", "soporte") to its account.
	Inboxes map[string]InboxAccount
	// Broadcast maps account keys ("difusionA".."difusionE").
	Broadcast map[string]BroadcastAccount
}

type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

type ZapierConfig struct {
	WebhookURL string
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("ENV", "development"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
			DB:  getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-me-in-production"),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour*7),
		},
		Dashboard: DashboardConfig{
			User:     getEnv("DASHBOARD_USER", "admin"),
			Password: getEnv("DASHBOARD_PASSWORD", ""),
		},
		Twilio: TwilioConfig{
			Inboxes: map[string]InboxAccount{
				"ventas": {
					SID:   getEnv("TWILIO_ACCOUNT_SID_VENTAS", ""),
					Token: getEnv("TWILIO_AUTH_TOKEN_VENTAS", ""),
					From:  getEnv("TWILIO_NUMBER_VENTAS", ""),
				},
				"soporte": {
					SID:   getEnv("TWILIO_ACCOUNT_SID_SOPORTE", ""),
					Token: getEnv("TWILIO_AUTH_TOKEN_SOPORTE", ""),
					From:  getEnv("TWILIO_NUMBER_SOPORTE", ""),
				},
			},
			Broadcast: loadBroadcastAccounts(),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		},
		Zapier: ZapierConfig{
			WebhookURL: getEnv("ZAPIER_WEBHOOK_URL", ""),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
		},
	}
}

func loadBroadcastAccounts() map[string]BroadcastAccount {
	out := make(map[string]BroadcastAccount)
	for _, suffix := range []string{"A", "B", "C", "D", "E"} {
		out["difusion"+suffix] = BroadcastAccount{
			SID:           getEnv("TWILIO_ACCOUNT_SID_DIFUSION_"+suffix, ""),
			Token:         getEnv("TWILIO_AUTH_TOKEN_DIFUSION_"+suffix, ""),
			NumberVentas:  getEnv("TWILIO_NUMBER_VENTAS_DIFUSION_"+suffix, ""),
			NumberSoporte: getEnv("TWILIO_NUMBER_SOPORTE_DIFUSION_"+suffix, ""),
		}
	}
	return out
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
