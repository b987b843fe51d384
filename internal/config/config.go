package config

import (
	"time"

	"github.com/voxhire/interview-service/internal/repository"
	pkgconfig "github.com/voxhire/interview-service/pkg/config"
	"github.com/voxhire/interview-service/pkg/pubsub"
	"github.com/voxhire/interview-service/pkg/storage"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Messages MessagesConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
	Storage  storage.Config
	PubSub   pubsub.Config
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	RoomTTL  time.Duration `mapstructure:"room_ttl"`
}

// MessagesConfig selects the message history backend. The gorm backend
// shares the relational database; the cassandra backend keeps message
// history in its own cluster.
type MessagesConfig struct {
	Backend   string                     `mapstructure:"backend"` // "gorm", "cassandra"
	Cassandra repository.CassandraConfig `mapstructure:"cassandra"`
}

type JWTConfig struct {
	Secret          string
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
	Issuer          string
}

type OpenAIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	TranscribeModel string        `mapstructure:"transcribe_model"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_PATH", "./config"), "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "interview_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/interview.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.room_ttl", 5*time.Minute)
	v.SetDefault("messages.backend", "gorm")
	v.SetDefault("messages.cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("messages.cassandra.keyspace", "interview")
	v.SetDefault("messages.cassandra.consistency", "LOCAL_QUORUM")
	v.SetDefault("messages.cassandra.connect_timeout", 10*time.Second)
	v.SetDefault("messages.cassandra.timeout", 5*time.Second)
	v.SetDefault("jwt.access_duration", 15*time.Minute)
	v.SetDefault("jwt.refresh_duration", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "interview-service")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.transcribe_model", "whisper-1")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/uploads")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "interview-uploads")
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "interview-service")
	v.SetDefault("pubsub.kafka.partitions", 3)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("messages.backend", "MESSAGES_BACKEND")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "OPENAI_MODEL")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
