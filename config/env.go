package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Environment contains the imported environment variables.
type Environment struct {
	// Debug vs Deploy
	Mode string `default:"dev"`
	// Base URL of the text analysis platform, without the REST API prefix
	URL string `default:"http://localhost:8080"`
	// API token used to authenticate against the platform
	APIToken string `split_words:"true"`
	// Project that owns the pipeline being driven
	Project string `default:""`
	// Name of the pipeline being driven
	Pipeline string `default:""`
	// Per-request timeout for calls against the platform
	RequestTimeoutSec int `default:"30" split_words:"true"`
	// How long to wait for a requested pipeline state change to be observed
	StateChangeTimeoutSec int `default:"300" split_words:"true"`
	// How often to poll pipeline state while waiting for a change
	StatePollIntervalSec int `default:"5" split_words:"true"`
}

func (e Environment) String() string {
	settings, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return fmt.Errorf("Failed to marshal env: %v", err).Error()
	}
	return fmt.Sprintf("Environment Settings:\n%s\n", string(settings))
}

// Load imports the environment variables and returns them in an Environment.
func Load(envFile string) (*Environment, error) {
	testEnv := os.Getenv("TA_MODE")
	// if no env var in existing environment, load environment file from the .env file,
	// otherwise (in production) just check existing host environment
	if "" == testEnv {
		err := godotenv.Load(envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "Error loading %s file", envFile)
		}
	}

	var env Environment
	err := envconfig.Process("ta", &env)
	if err != nil {
		return nil, errors.Wrap(err, "Error processing environment config")
	}
	return &env, err
}
