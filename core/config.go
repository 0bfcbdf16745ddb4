package core

import (
	"log"
	"net"
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
		Host                      string        `mapstructure:"host"`
		Address                   string        `mapstructure:"address"`
		DebugHost                 string        `mapstructure:"debugHost"`
		JWTExpirationDelta        time.Duration `mapstructure:"jwtExpirationDelta"`
		JWTRefreshExpirationDelta time.Duration `mapstructure:"jwtRefreshExpirationDelta"`
		ShutdownTimeout           time.Duration `mapstructure:"shutdownTimeout"`
		AllowOrigins              []string      `mapstructure:"allowOrigins"`
	}

	DatabaseConfig struct {
		Engine        string `mapstructure:"engine"` // postgres | memory
		Host          string `mapstructure:"host"`
		Port          string `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		AdminUser     string `mapstructure:"adminUser"`
		AdminPassword string `mapstructure:"adminPassword"`
		DisableTLS    bool   `mapstructure:"disableTLS"`
	}

	MediaConfig struct {
		Driver           string `mapstructure:"driver"` // local | cloudinary
		Dir              string `mapstructure:"dir"`
		BaseURL          string `mapstructure:"baseURL"`
		Folder           string `mapstructure:"folder"`
		CloudinaryCloud  string `mapstructure:"cloudinaryCloud"`
		CloudinaryKey    string `mapstructure:"cloudinaryKey"`
		CloudinarySecret string `mapstructure:"cloudinarySecret"`
	}

	VideoConfig struct {
		YoutubeAPIKey         string `mapstructure:"youtubeApiKey"`
		GoogleCredentialsFile string `mapstructure:"googleCredentialsFile"`
	}

	CourseConfig struct {
		// PassThreshold is the minimum final assignment percentage required to complete a course.
		PassThreshold float64 `mapstructure:"passThreshold"`
	}

	MirrorConfig struct {
		QueueSize  int `mapstructure:"queueSize"`
		MaxRetries int `mapstructure:"maxRetries"`
	}

	Config struct {
		Env              string `mapstructure:"env"`
		Build            string `mapstructure:"build"`
		Debug            bool   `mapstructure:"debug"`
		TestMode         bool   `mapstructure:"testMode"`
		AppName          string `mapstructure:"appName"`
		WorkDir          string `mapstructure:"workDir"`
		SecretKey        string `mapstructure:"secretKey"`
		FrontendBaseURL  string `mapstructure:"frontendBaseURL"`
		DefaultFromEmail string `mapstructure:"defaultFromEmail"`
		SendgridApiKey   string `mapstructure:"sendgridApiKey"`
		RollbarToken     string `mapstructure:"rollbarToken"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`
		Media    MediaConfig    `mapstructure:"media"`
		Video    VideoConfig    `mapstructure:"video"`
		Course   CourseConfig   `mapstructure:"course"`
		Mirror   MirrorConfig   `mapstructure:"mirror"`
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// FromAddress parses DefaultFromEmail, falling back to a bare address named after the app.
func (conf *Config) FromAddress() mail.Address {
	if addr, err := mail.ParseAddress(conf.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmail}
}

func setDefaults(v *viper.Viper, wd string) {
	v.SetDefault("env", "DEV")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "CourseHub")
	v.SetDefault("workDir", wd)
	v.SetDefault("secretKey", "k7#t0f$q!w2m)9zr^d&v+4xg=1bn(ey8u*l5hs@c3jp6o_ia")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "CourseHub <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.allowOrigins", []string{"http://localhost:5173"})

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "coursehub")
	v.SetDefault("database.user", "coursehub")
	v.SetDefault("database.password", "coursehub")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("media.driver", "local")
	v.SetDefault("media.dir", filepath.Join(wd, "uploads"))
	v.SetDefault("media.baseURL", "http://localhost:8000/uploads")
	v.SetDefault("media.folder", "Learning-Management-System")
	v.SetDefault("media.cloudinaryCloud", "")
	v.SetDefault("media.cloudinaryKey", "")
	v.SetDefault("media.cloudinarySecret", "")

	v.SetDefault("video.youtubeApiKey", "")
	v.SetDefault("video.googleCredentialsFile", "")

	v.SetDefault("course.passThreshold", 65.0)

	v.SetDefault("mirror.queueSize", 256)
	v.SetDefault("mirror.maxRetries", 5)
}

// NewConfig loads the app configuration.
// Lookup order: env vars prefixed with the current ENV (eg. PROD_DATABASE_HOST), config/.env.<env>, defaults.
func NewConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v, wd)
	v.Set("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("database.engine", "memory")
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal(): %v", err)
	}
	return conf
}

// NewTestConfig returns a Config suitable for tests: in-memory storage, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "CourseHub",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:5173",
		DefaultFromEmail: "CourseHub <noreply@localhost>",
		Server: ServerConfig{
			Host:                      "localhost",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ShutdownTimeout:           time.Second,
		},
		Database: DatabaseConfig{Engine: "memory"},
		Media:    MediaConfig{Driver: "local", Dir: os.TempDir(), BaseURL: "http://localhost/uploads", Folder: "test"},
		Course:   CourseConfig{PassThreshold: 65},
		Mirror:   MirrorConfig{QueueSize: 8, MaxRetries: 1},
	}
}
