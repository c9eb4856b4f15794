package config

import (
	"os"
	"strings"

	"github.com/antonio-alexander/go-employee-crud/internal"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvConfigFile string = "CONFIG_FILE"

// Load flattens the config file (if any) into the same upper case
// keys read from the environment; nested keys are joined with an
// underscore (database.type becomes DATABASE_TYPE). Environment
// variables take precedence over the file. When configFile is empty
// CONFIG_FILE is used.
func Load(configFile string) (map[string]string, error) {
	envs := make(map[string]string)
	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", configFile)
		}
		for _, key := range v.AllKeys() {
			envs[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v.GetString(key)
		}
	}
	for key, value := range internal.EnvsFromOs() {
		envs[key] = value
	}
	return envs, nil
}
