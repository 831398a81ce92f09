package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Analysis  AnalysisConfig
	Streaming StreamingConfig
	AWS       AWSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// UploadConfig holds media upload settings.
type UploadConfig struct {
	Dir          string // local directory for uploaded media
	MaxSizeBytes int64
}

// AnalysisConfig holds the media analysis pipeline settings.
type AnalysisConfig struct {
	FrameInterval      int     // sample every Nth decoded frame of a video
	NominalFPS         int     // assumed source frame rate for timestamp offsets
	FrameDedupDistance int     // pHash distance below which a frame is skipped; 0 disables
	MaskThreshold      float64 // mask compliance threshold; below it a face counts as a violation
	SpoofThreshold     float64 // spoof likelihood above which an alert is raised
	ActivityThreshold  float64 // motion score above which an alert is raised
	Concurrency        int64   // max analysis runs in flight
	FFmpegPath         string
}

// StreamingConfig holds the live-view (RTSP to HLS) settings.
type StreamingConfig struct {
	Dir             string // base directory for per-camera HLS output
	FFmpegPath      string
	SegmentSeconds  int           // HLS segment duration
	PlaylistSize    int           // rolling window of segments kept in the playlist
	ManifestTimeout time.Duration // how long to wait for the first playlist before failing
	StopGrace       time.Duration // wait after SIGTERM before SIGKILL
	IdleGrace       time.Duration // stop sessions not accessed for this long
}

// AWSConfig holds AWS credentials and the media archive bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ArchiveBucket        string
	PresignExpireMinutes int
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "smart_cctv"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: int64(getEnvInt("MAX_UPLOAD_MB", 1024)) * 1024 * 1024,
		},
		Analysis: AnalysisConfig{
			FrameInterval:      getEnvInt("FRAME_INTERVAL", 30),
			NominalFPS:         getEnvInt("VIDEO_FRAME_RATE", 30),
			FrameDedupDistance: getEnvInt("FRAME_DEDUP_DISTANCE", 0),
			MaskThreshold:      getEnvFloat("MASK_COMPLIANCE_THRESHOLD", 0.5),
			SpoofThreshold:     getEnvFloat("SPOOF_THRESHOLD", 0.6),
			ActivityThreshold:  getEnvFloat("ACTIVITY_THRESHOLD", 0.5),
			Concurrency:        int64(getEnvInt("ANALYSIS_CONCURRENCY", 4)),
			FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Streaming: StreamingConfig{
			Dir:             getEnv("STREAMS_DIR", "streams"),
			FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
			SegmentSeconds:  getEnvInt("HLS_SEGMENT_SEC", 2),
			PlaylistSize:    getEnvInt("HLS_PLAYLIST_SIZE", 5),
			ManifestTimeout: time.Duration(getEnvInt("STREAM_MANIFEST_TIMEOUT_SEC", 15)) * time.Second,
			StopGrace:       time.Duration(getEnvInt("STREAM_STOP_GRACE_SEC", 5)) * time.Second,
			IdleGrace:       time.Duration(getEnvInt("STREAM_IDLE_GRACE_SEC", 60)) * time.Second,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:        getEnv("AWS_S3_ARCHIVE_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
