package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	ce "github.com/cannacore/compliance-backend/pkg/errors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultAppName = "compliance"

const HeaderRequestId = "x-request-id"
const RequestIdLoggingKey = "request_id"

type Configuration struct {
	Logging Logging
	Loaded  bool
	Options Options
	Metrics Metrics
	Clients Clients `mapstructure:"clients"`
}

type Clients struct {
	Lamatic Lamatic `mapstructure:"lamatic"`
	Storage Storage `mapstructure:"storage"`
	Redis   Redis   `mapstructure:"redis"`
}

// Lamatic is the remote compliance-analysis workflow engine.
type Lamatic struct {
	Server     string `mapstructure:"server"`
	ApiKey     string `mapstructure:"api_key"`
	ProjectId  string `mapstructure:"project_id"`
	WorkflowId string `mapstructure:"workflow_id"`
	Timeout    int    `mapstructure:"timeout"`
}

type Storage struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// PublicUrlBase prefixes generated object URLs and identifies which
	// URLs cleanup is allowed to delete.
	PublicUrlBase string `mapstructure:"public_url_base"`
}

type Logging struct {
	Level   string
	Console bool
}

type Redis struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DB         int
	Expiration time.Duration
}

type Options struct {
	// ChunkSizeBytes is the client-side chunk size; enforced only as an
	// upper bound on a single chunk body.
	ChunkSizeBytes       int           `mapstructure:"chunk_size_bytes"`
	SessionTimeout       time.Duration `mapstructure:"session_timeout"`
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_interval"`
	TrackingTimeout      time.Duration `mapstructure:"tracking_timeout"`
	TrackingSweep        time.Duration `mapstructure:"tracking_sweep_interval"`
	// ReduceThresholdBytes is the assembled-buffer size above which the
	// size-reduction transform runs before upload.
	ReduceThresholdBytes int `mapstructure:"reduce_threshold_bytes"`
	RateLimitPerWindow   int `mapstructure:"rate_limit_per_window"`
	RateLimitWindowSecs  int `mapstructure:"rate_limit_window_secs"`
	// ResultPollInterval is the upstream polling cadence for blocking
	// result requests (wait=true).
	ResultPollInterval time.Duration `mapstructure:"result_poll_interval"`
}

type Metrics struct {
	// Defines the path to the metrics server that the app should be configured to
	// listen on for metric traffic.
	Path string `mapstructure:"path"`

	// Defines the metrics port that the app should be configured to listen on for
	// metric traffic.
	Port int `mapstructure:"port"`
}

const (
	DefaultChunkSizeBytes       = 2 * 1024 * 1024
	DefaultSessionTimeout       = 30 * time.Minute
	DefaultSessionSweepInterval = 5 * time.Minute
	DefaultTrackingTimeout      = 24 * time.Hour
	DefaultTrackingSweep        = 60 * time.Minute
	DefaultReduceThreshold      = 8 * 1024 * 1024
	DefaultResultPollInterval   = 3 * time.Second
)

var LoadedConfig Configuration

func Get() *Configuration {
	if !LoadedConfig.Loaded {
		Load()
	}
	return &LoadedConfig
}

func readConfigFile(v *viper.Viper) {
	v.SetConfigName("config.yaml")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs/")
	v.AddConfigPath("../../configs/")
	v.AddConfigPath("../../../configs")

	if path, ok := os.LookupEnv("CONFIG_PATH"); ok {
		v.AddConfigPath(path)
	}
	err := v.ReadInConfig()
	if err != nil {
		log.Logger.Warn().Msgf("config.yaml file not loaded: %s", err.Error())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Loaded", true)
	// In viper you have to set defaults, otherwise loading from ENV doesn't work
	//   without a config file present
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9000)

	v.SetDefault("clients.lamatic.server", "")
	v.SetDefault("clients.lamatic.api_key", "")
	v.SetDefault("clients.lamatic.project_id", "")
	v.SetDefault("clients.lamatic.workflow_id", "")
	v.SetDefault("clients.lamatic.timeout", 60)

	v.SetDefault("clients.storage.region", "")
	v.SetDefault("clients.storage.bucket", "")
	v.SetDefault("clients.storage.access_key", "")
	v.SetDefault("clients.storage.secret_key", "")
	v.SetDefault("clients.storage.public_url_base", "")

	v.SetDefault("clients.redis.host", "")
	v.SetDefault("clients.redis.port", 6379)
	v.SetDefault("clients.redis.username", "")
	v.SetDefault("clients.redis.password", "")
	v.SetDefault("clients.redis.db", 0)
	v.SetDefault("clients.redis.expiration", 1*time.Minute)

	v.SetDefault("options.chunk_size_bytes", DefaultChunkSizeBytes)
	v.SetDefault("options.session_timeout", DefaultSessionTimeout)
	v.SetDefault("options.session_sweep_interval", DefaultSessionSweepInterval)
	v.SetDefault("options.tracking_timeout", DefaultTrackingTimeout)
	v.SetDefault("options.tracking_sweep_interval", DefaultTrackingSweep)
	v.SetDefault("options.reduce_threshold_bytes", DefaultReduceThreshold)
	v.SetDefault("options.rate_limit_per_window", 10)
	v.SetDefault("options.rate_limit_window_secs", 900)
	v.SetDefault("options.result_poll_interval", DefaultResultPollInterval)
}

func Load() {
	v := viper.New()

	readConfigFile(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.Unmarshal(&LoadedConfig)
	if err != nil {
		panic(err)
	}

	if LoadedConfig.Clients.Redis.Host == "" {
		log.Warn().Msg("Caching is disabled.")
	}
}

func RedisUrl() string {
	return fmt.Sprintf("%s:%d", Get().Clients.Redis.Host, Get().Clients.Redis.Port)
}

func ProgramString() string {
	return strings.Join(os.Args, " ")
}

func CustomHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message ce.ErrorResponse

	if c.Response().Committed {
		c.Logger().Error(err)
		return
	}

	if errResp, ok := err.(ce.ErrorResponse); ok {
		code = ce.GetGeneralResponseCode(errResp)
		message = errResp
	} else if he, ok := err.(*echo.HTTPError); ok {
		errResp := ce.NewErrorResponseFromEchoError(he)
		code = errResp.Errors[0].Status
		message = errResp
	} else {
		code = http.StatusInternalServerError
		message = ce.NewErrorResponse(code, "", http.StatusText(http.StatusInternalServerError))
	}

	// Send response
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		log.Logger.Error().Err(err)
	}
}
