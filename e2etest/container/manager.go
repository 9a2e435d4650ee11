package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vaultlabs-io/defi-vault-engine/internal/config"
	"github.com/vaultlabs-io/defi-vault-engine/internal/db"
	"github.com/vaultlabs-io/defi-vault-engine/testutil"
)

const (
	mongoUsername = "user"
	mongoPassword = "password"
	mongoDatabase = "e2e-vault-engine"

	rabbitUsername = "user"
	rabbitPassword = "password"
)

// Manager starts and tracks the docker resources backing an e2e run.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources []*dockertest.Resource
}

func NewManager() (*Manager, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("failed to create dockertest pool: %w", err)
	}

	return &Manager{
		cfg:  NewImageConfig(),
		pool: pool,
	}, nil
}

// RunMongoResource starts a mongo container and blocks until it accepts
// connections, returning the db config pointing at it.
func (m *Manager) RunMongoResource() (*config.DbConfig, error) {
	resource, err := m.runResource("mongo", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + mongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + mongoPassword,
			"MONGO_INITDB_DATABASE=" + mongoDatabase,
		},
	})
	if err != nil {
		return nil, err
	}

	dbCfg := &config.DbConfig{
		Username: mongoUsername,
		Password: mongoPassword,
		DbName:   mongoDatabase,
		Address:  fmt.Sprintf("mongodb://localhost:%s/", resource.GetPort("27017/tcp")),
	}

	if err := m.pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := db.New(ctx, *dbCfg)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	}); err != nil {
		return nil, fmt.Errorf("mongo container never became ready: %w", err)
	}

	return dbCfg, nil
}

// RunRabbitResource starts a rabbitmq container and blocks until it accepts
// connections, returning the queue config pointing at it.
func (m *Manager) RunRabbitResource(queueName string) (*config.QueueConfig, error) {
	resource, err := m.runResource("rabbitmq", &dockertest.RunOptions{
		Repository: m.cfg.RabbitRepository,
		Tag:        m.cfg.RabbitVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + rabbitUsername,
			"RABBITMQ_DEFAULT_PASS=" + rabbitPassword,
		},
	})
	if err != nil {
		return nil, err
	}

	queueCfg := &config.QueueConfig{
		User:           rabbitUsername,
		Password:       rabbitPassword,
		URL:            fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp")),
		QueueName:      queueName,
		PublishTimeout: 5 * time.Second,
	}

	if err := m.pool.Retry(func() error {
		conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s/", queueCfg.User, queueCfg.Password, queueCfg.URL))
		if err != nil {
			return err
		}
		return conn.Close()
	}); err != nil {
		return nil, fmt.Errorf("rabbitmq container never became ready: %w", err)
	}

	return queueCfg, nil
}

func (m *Manager) runResource(name string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	suffix, err := testutil.RandomAlphaNum(3)
	if err != nil {
		return nil, err
	}
	opts.Name = fmt.Sprintf("%s-e2e-tests-%s", name, suffix)

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run %s container: %w", name, err)
	}

	m.resources = append(m.resources, resource)
	return resource, nil
}

// ClearResources purges every container this manager started.
func (m *Manager) ClearResources() error {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return fmt.Errorf("failed to purge resource %s: %w", resource.Container.Name, err)
		}
	}
	m.resources = nil
	return nil
}
