// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/filesystem"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Strategies lists the accepted values of key.PlayerStrategy.
var Strategies = []string{"auto", "native", "managed"}

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

// Validate checks the playback-related values that cannot be expressed through the default's type alone.
func Validate() error {
	if s := viper.GetString(key.PlayerStrategy); !lo.Contains(Strategies, s) {
		return fmt.Errorf("%s: unknown strategy %q (want one of %s)", key.PlayerStrategy, s, strings.Join(Strategies, ", "))
	}

	if v := viper.GetInt(key.PlayerVolume); v < 0 || v > 100 {
		return fmt.Errorf("%s: %d is outside 0..100", key.PlayerVolume, v)
	}

	if r := viper.GetInt(key.PlayerNetworkRetries); r < 0 {
		return fmt.Errorf("%s: must not be negative", key.PlayerNetworkRetries)
	}

	if s := viper.GetInt(key.PlayerSeekStep); s <= 0 {
		return fmt.Errorf("%s: must be positive", key.PlayerSeekStep)
	}

	return nil
}
