package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
	DSN           string              `yaml:"dsn" env:"DSN" env-required:"true"`
	HTTP          HTTPConfig          `yaml:"http"`
	FileStorage   FileStorageConfig   `yaml:"file_storage"`
	S3            S3Config            `yaml:"s3"`
	Redis         RedisConf           `yaml:"redis"`
	Images        ImagesConfig        `yaml:"images"`
	Auth          AuthConfig          `yaml:"auth"`
	ClientGallery ClientGalleryConfig `yaml:"client_gallery"`
	Cache         CacheConfig         `yaml:"cache"`
}

type HTTPConfig struct {
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout   time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout  time.Duration `yaml:"write_timeout" env-default:"60s"`
	MaxUploadSize string        `yaml:"max_upload_size" env-default:"200M"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET" env-default:"change-me"`
}

// FileStorageConfig is the local fallback used when no S3 bucket is set.
type FileStorageConfig struct {
	BaseDir string `yaml:"base_dir" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env-default:"http://localhost:8080/uploads"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	CDNURL    string `yaml:"cdn_url" env:"S3_CDN_URL"`
	PathStyle bool   `yaml:"path_style" env-default:"true"`
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type ImagesConfig struct {
	WebMaxWidth    int   `yaml:"web_max_width" env-default:"2500"`
	WebPQuality    int   `yaml:"webp_quality" env-default:"85"`
	ThumbnailWidth int   `yaml:"thumbnail_width" env-default:"480"`
	MaxFileSize    int64 `yaml:"max_file_size" env-default:"52428800"`
	VipsWorkers    int   `yaml:"vips_workers"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL          time.Duration `yaml:"token_ttl" env-default:"12h"`
	AdminUsername     string        `yaml:"admin_username" env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH"`
	BcryptCost        int           `yaml:"bcrypt_cost" env-default:"10"`
}

type ClientGalleryConfig struct {
	AccessTTL time.Duration `yaml:"access_ttl" env-default:"72h"`
}

type CacheConfig struct {
	VocabularyTTL time.Duration `yaml:"vocabulary_ttl" env-default:"5m"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
