package configs

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Port           string   `mapstructure:"port"`
	UploadDir      string   `mapstructure:"upload_dir"`
	FramesDir      string   `mapstructure:"frames_dir"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Database struct {
	Driver   string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

type Detector struct {
	Backend        string        `mapstructure:"backend"` // remote, none
	ObjectURL      string        `mapstructure:"object_url"`
	FaceURL        string        `mapstructure:"face_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Retries        int           `mapstructure:"retries"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

type Media struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
	FrameSize   string `mapstructure:"frame_size"`
}

type Cache struct {
	MaxEntries      int           `mapstructure:"max_entries"`
	TTL             time.Duration `mapstructure:"ttl"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
}

type Moderation struct {
	MaxTextBytes     int64 `mapstructure:"max_text_bytes"`
	TextPreviewChars int   `mapstructure:"text_preview_chars"`
}

type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Detector   Detector   `mapstructure:"detector"`
	Media      Media      `mapstructure:"media"`
	Cache      Cache      `mapstructure:"cache"`
	Moderation Moderation `mapstructure:"moderation"`
	Log        Log        `mapstructure:"log"`
}

// setDefaults 注册默认值，无配置文件时也能启动
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.frames_dir", "frames")
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "moderation.db")
	for _, key := range []string{"host", "port", "user", "password", "dbname"} {
		v.SetDefault("database."+key, "")
	}

	v.SetDefault("detector.backend", "remote")
	v.SetDefault("detector.object_url", "http://localhost:8501/coco-ssd")
	v.SetDefault("detector.face_url", "http://localhost:8501/blazeface")
	v.SetDefault("detector.timeout", 30*time.Second)
	v.SetDefault("detector.retries", 2)
	v.SetDefault("detector.max_concurrency", 1)

	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("media.frame_size", "320x240")

	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.monitor_interval", time.Minute)

	v.SetDefault("moderation.max_text_bytes", 1<<20)
	v.SetDefault("moderation.text_preview_chars", 500)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile 从指定文件加载配置
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// MODERATION_SERVER_PORT 覆盖 server.port
	v.SetEnvPrefix("moderation")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
