// batchspoof/config/config.go
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	FFBin      string `mapstructure:"FF_BIN"`
	FFProbeBin string `mapstructure:"FFPROBE_BIN"`
	OutputDir  string `mapstructure:"OUTPUT_DIR"`

	MaxAttempts int           `mapstructure:"MAX_ATTEMPTS"`
	RetryDelay  time.Duration `mapstructure:"RETRY_DELAY"`
	PausePoll   time.Duration `mapstructure:"PAUSE_POLL"`

	VideoCodec   string `mapstructure:"VIDEO_CODEC"`
	VideoCRF     int    `mapstructure:"VIDEO_CRF"`
	VideoPreset  string `mapstructure:"VIDEO_PRESET"`
	AudioCodec   string `mapstructure:"AUDIO_CODEC"`
	AudioBitrate string `mapstructure:"AUDIO_BITRATE"`
	ExtraArgs    string `mapstructure:"EXTRA_ARGS"`

	ThrottleCPU      float64 `mapstructure:"THROTTLE_CPU"`
	ThrottleFreeMem  int64   `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk int64   `mapstructure:"THROTTLE_FREEDISK"`

	EventHistory int    `mapstructure:"EVENT_HISTORY"`
	AuthEnable   bool   `mapstructure:"AUTH_ENABLE"`
	AuthKey      string `mapstructure:"AUTH_KEY"`
	Port         string `mapstructure:"PORT"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Default returns the configuration Load produces when neither a config file
// nor environment overrides are present.
func Default() *Config {
	return &Config{
		FFBin:            "ffmpeg",
		FFProbeBin:       "ffprobe",
		OutputDir:        "./output",
		MaxAttempts:      3,
		RetryDelay:       time.Second,
		PausePoll:        500 * time.Millisecond,
		VideoCodec:       "libx264",
		VideoCRF:         23,
		VideoPreset:      "medium",
		AudioCodec:       "aac",
		AudioBitrate:     "128k",
		ThrottleFreeMem:  200 * 1024 * 1024,
		ThrottleFreeDisk: 200 * 1024 * 1024,
		EventHistory:     500,
		Port:             "8080",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// stringToDurationHookFunc parses Go duration strings such as "1s" or "750ms".
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc parses human-readable sizes such as "200MB".
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(data.(string))); err != nil {
			// Not a size string, leave it for the next hook.
			return data, nil
		}
		return int64(size.Bytes()), nil
	}
}

// setDefaults registers every field of def under its mapstructure key, which
// also lets AutomaticEnv see the key during Unmarshal.
func setDefaults(vp *viper.Viper, def *Config) {
	v := reflect.ValueOf(def).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		vp.SetDefault(t.Field(i).Tag.Get("mapstructure"), v.Field(i).Interface())
	}
}

func Load() (*Config, error) {
	vp := viper.New()

	setDefaults(vp, Default())

	vp.SetConfigName("batchspoof_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/batchspoof/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	vp.SetEnvPrefix("BATCHSPOOF")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// The first hook that converts the value wins.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, err
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &cfg, nil
}
