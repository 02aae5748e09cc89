package env

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/veedubyou/stem-remixer/src/shared/config/envvar"
)

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

func Get() Environment {
	environment := envvar.MustGet(envvar.ENVIRONMENT)

	switch environment {
	case "production":
		return Production
	case "development":
		return Development
	case "test":
		return Test
	default:
		panic("Invalid environment is set")
	}
}

// LoadDotEnv fills in unset variables from the given .env files.
// Missing files are ignored, variables already in the environment win.
func LoadDotEnv(filenames ...string) error {
	existing := []string{}
	for _, filename := range filenames {
		if _, err := os.Stat(filename); err == nil {
			existing = append(existing, filename)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}
