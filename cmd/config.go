package cmd

import (
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/potholed/params"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"path/filepath"
	"reflect"
	"strings"
)

// appConfig is the whole configuration, one section per component.
//
//	detector: {lowpass_alpha: 0.8, baseline_window: 10, ...}
//	sensor:   {tick_interval: 500ms, dedupe_fixes: true}
//	remote:   {url: https://..., purge_every: 75}
//	influx:   {url: http://localhost:8086, bucket: potholes}
//	store:    {path: ~/.potholed/events.db}
//	web:      {address: localhost:3000}
//
// Every key can also be set from the environment, eg. POTHOLED_REMOTE_PURGE_EVERY.
type appConfig struct {
	Detector *params.DetectorConfig     `mapstructure:"detector"`
	Sensor   *params.SensorDaemonConfig `mapstructure:"sensor"`
	Remote   *params.RemoteSinkConfig   `mapstructure:"remote"`
	Influx   *params.InfluxSinkConfig   `mapstructure:"influx"`
	Store    *params.StoreSinkConfig    `mapstructure:"store"`
	Web      *params.WebDaemonConfig    `mapstructure:"web"`
}

func defaultAppConfig() *appConfig {
	return &appConfig{
		Detector: params.DefaultDetectorConfig(),
		Sensor:   params.DefaultSensorDaemonConfig(),
		Remote:   params.DefaultRemoteSinkConfig(),
		Influx:   params.DefaultInfluxSinkConfig(),
		Store:    params.DefaultStoreSinkConfig(),
		Web:      params.DefaultWebDaemonConfig(),
	}
}

// configureEnv makes every config key readable from a POTHOLED_ prefixed
// environment variable, with dots and dashes as underscores.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("POTHOLED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// loadAppConfig resolves every key from, in order of precedence, a changed
// bound flag, the environment, the config file, and the defaults.
func loadAppConfig(v *viper.Viper) (*appConfig, error) {
	c := defaultAppConfig()

	// Viper only looks up keys it knows about, so register them all.
	registerDefaults(v, "", reflect.ValueOf(c).Elem())

	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Detector.Validate(); err != nil {
		return nil, fmt.Errorf("config detector: %w", err)
	}
	if err := c.Sensor.Validate(); err != nil {
		return nil, fmt.Errorf("config sensor: %w", err)
	}
	if c.Store.Path != "" {
		p, err := expandPath(c.Store.Path)
		if err != nil {
			return nil, err
		}
		c.Store.Path = p
	}
	return c, nil
}

// registerDefaults sets a default for every leaf field of val, keyed by
// mapstructure tags joined with dots. Squashed fields share their parent's prefix.
func registerDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		fv := val.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if opts == "squash" {
			registerDefaults(v, prefix, fv)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if fv.Kind() == reflect.Struct {
			registerDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

func expandPath(p string) (string, error) {
	p, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

// bindFlags binds config keys to the named flags, so a flag set on the command line
// overrides the environment and config file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
