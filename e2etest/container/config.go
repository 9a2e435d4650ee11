package container

import (
	"github.com/vaultlabs-io/defi-vault-engine/pkg"
)

// ImageConfig contains all images and their respective tags
// needed for running e2e tests.
type ImageConfig struct {
	MongoRepository  string
	MongoVersion     string
	RabbitRepository string
	RabbitVersion    string
}

const (
	dockerMongoRepository = "mongo"
	// should be in sync with mongo version used in production
	dockerMongoVersionTag  = "7.0.5"
	dockerRabbitRepository = "rabbitmq"
	dockerRabbitVersionTag = "3.13"
)

// NewImageConfig returns ImageConfig needed for running e2e test. Image tags
// can be overridden through the environment to test against other versions.
func NewImageConfig() ImageConfig {
	return ImageConfig{
		MongoRepository:  pkg.Getenv("E2E_MONGO_REPOSITORY", dockerMongoRepository),
		MongoVersion:     pkg.Getenv("E2E_MONGO_VERSION", dockerMongoVersionTag),
		RabbitRepository: pkg.Getenv("E2E_RABBIT_REPOSITORY", dockerRabbitRepository),
		RabbitVersion:    pkg.Getenv("E2E_RABBIT_VERSION", dockerRabbitVersionTag),
	}
}
