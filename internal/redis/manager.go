package redis

import (
	"fmt"
	"sync"

	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// WorkerStatusDBIndex uses database 4 for worker heartbeats and last-run
// records, matching the layout shared with other services on the same Redis.
const WorkerStatusDBIndex = 4

// Manager maintains a thread-safe mapping of database indices to Redis clients.
// Each database index gets its own dedicated connection pool through rueidis.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager initializes the Redis connection manager with an empty client pool.
// Actual client connections are created lazily when first requested.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// Enabled reports whether a Redis host is configured.
func (m *Manager) Enabled() bool {
	return m != nil && m.config.Host != ""
}

// GetClient retrieves or creates a Redis client for the specified database index.
// It returns a nil client without error when Redis is not configured.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	if !m.Enabled() {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:     m.config.Username,
		Password:     m.config.Password,
		SelectDB:     dbIndex,
		ClientName:   "rewarder",
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", dbIndex))

	return client, nil
}

// Close gracefully shuts down all active Redis clients in the pool.
// Safe to call multiple times as it cleans up only existing connections.
func (m *Manager) Close() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		m.logger.Info("Closed Redis client", zap.Int("dbIndex", dbIndex))
		delete(m.clients, dbIndex)
	}
}
