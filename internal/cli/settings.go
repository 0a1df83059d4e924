package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/horockey/nskv"
	"github.com/horockey/nskv/internal/store_factory"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "NSKV"

type settings struct {
	nskv.Config `mapstructure:",squash"`

	Store     string `mapstructure:"store"`
	BadgerDir string `mapstructure:"badger-dir"`
	HTTPURL   string `mapstructure:"http-url"`
	APIKey    string `mapstructure:"api-key"`
	LogLevel  string `mapstructure:"log-level"`
	Listen    string `mapstructure:"listen"`
}

func bindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to yaml config file")
	fs.String("host", "localhost", "redis host")
	fs.Int("port", 6379, "redis port") //nolint: mnd
	fs.String("namespace", "", "key namespace")
	fs.String("store", string(store_factory.KindRedis), "store backend: redis, badger or http")
	fs.String("badger-dir", "./badger", "badger db dir for badger store")
	fs.String("http-url", "", "nskv proxy url for http store")
	fs.String("api-key", "", "api key of nskv proxy")
	fs.String("log-level", zerolog.WarnLevel.String(), "log level")
}

// Loads settings from flags, NSKV_* env vars and optional config file,
// in that order of priority.
func loadSettings(fs *pflag.FlagSet) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return settings{}, fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	s := settings{}
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decoding settings: %w", err)
	}

	return s, nil
}

func (s settings) logger() (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level: %w", err)
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(lvl).With().
		Timestamp().
		Str("scope", "nskv_cli").
		Logger(), nil
}

func (s settings) storeParams() (store_factory.Params, error) {
	params := store_factory.Params{
		Kind:       store_factory.Kind(s.Store),
		Host:       s.Host,
		Port:       s.Port,
		BadgerDir:  s.BadgerDir,
		HTTPURL:    s.HTTPURL,
		HTTPAPIKey: s.APIKey,
	}

	switch params.Kind {
	case store_factory.KindRedis, store_factory.KindBadger:
	case store_factory.KindHTTP:
		if params.HTTPURL == "" {
			return store_factory.Params{}, errors.New("http store requires --http-url")
		}
	default:
		return store_factory.Params{}, fmt.Errorf("unsupported store: %q", s.Store)
	}

	return params, nil
}

func (s settings) viewOpts(logger zerolog.Logger) ([]nskv.Option, error) {
	params, err := s.storeParams()
	if err != nil {
		return nil, err
	}

	opts := []nskv.Option{nskv.WithLogger(logger)}
	switch params.Kind {
	case store_factory.KindBadger:
		opts = append(opts, nskv.WithBadgerDir(params.BadgerDir))
	case store_factory.KindHTTP:
		opts = append(opts, nskv.WithHTTPStore(params.HTTPURL, params.HTTPAPIKey))
	}

	return opts, nil
}
