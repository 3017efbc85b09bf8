package mcpclient

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"cmdbridge/internal/domain"
)

// Manager registers and batch-operates the protocol clients for every
// configured server.
type Manager struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:  logger.Named("mcp_manager"),
		clients: make(map[string]*Client),
	}
}

func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	m.clients[client.ServerName()] = client
	m.mu.Unlock()
}

func (m *Manager) Get(name string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[name]
	return client, ok
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConnectAll connects every registered client sequentially, one result per
// server. A slow server delays the batch but never aborts it; callers
// needing bounded latency set per-entry timeouts.
func (m *Manager) ConnectAll(ctx context.Context) []domain.ConnectResult {
	results := make([]domain.ConnectResult, 0, len(m.clients))
	for _, name := range m.Names() {
		client, ok := m.Get(name)
		if !ok {
			continue
		}
		results = append(results, client.Connect(ctx))
	}
	return results
}

// ListAllTools queries only clients currently connected. A per-server
// failure yields an empty tool list for that server rather than aborting
// the batch.
func (m *Manager) ListAllTools(ctx context.Context) map[string][]domain.ToolInfo {
	out := make(map[string][]domain.ToolInfo)
	for _, name := range m.Names() {
		client, ok := m.Get(name)
		if !ok || client.State() != domain.StateConnected {
			continue
		}
		tools, err := client.ListTools(ctx)
		if err != nil {
			m.logger.Warn("list tools failed", zap.String("server", name), zap.Error(err))
			out[name] = nil
			continue
		}
		out[name] = tools
	}
	return out
}

func (m *Manager) DisconnectAll() {
	for _, name := range m.Names() {
		if client, ok := m.Get(name); ok {
			client.Disconnect()
		}
	}
}
