package discovery

import (
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// ConsulClient registers storefront services and resolves their peers.
type ConsulClient struct {
	client *api.Client
	next   atomic.Uint64
	logger *zap.Logger
}

type ServiceConfig struct {
	Name string
	ID   string
	// Address is advertised to peers. Empty means the outbound interface
	// address of this host.
	Address string
	Port    int
	Tags    []string
	// HealthPath defaults to /health.
	HealthPath string
}

func NewConsulClient(host string, port int, logger *zap.Logger) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = net.JoinHostPort(host, strconv.Itoa(port))

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}
	if _, err := client.Agent().Self(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	logger.Info("✅ Connected to Consul", zap.String("addr", config.Address))
	return &ConsulClient{client: client, logger: logger}, nil
}

func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func registration(cfg ServiceConfig) *api.AgentServiceRegistration {
	if cfg.Address == "" {
		cfg.Address = outboundIP()
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}
	return &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: cfg.Address,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           "http://" + net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)) + cfg.HealthPath,
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

func (c *ConsulClient) Register(cfg ServiceConfig) error {
	reg := registration(cfg)
	if err := c.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("failed to register %s: %w", cfg.Name, err)
	}

	c.logger.Info("✅ Registered service",
		zap.String("name", reg.Name), zap.String("id", reg.ID),
		zap.String("address", reg.Address), zap.Int("port", reg.Port))
	return nil
}

func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", serviceID, err)
	}

	c.logger.Info("✅ Deregistered service", zap.String("id", serviceID))
	return nil
}

// serviceURL falls back to the node address when the service registered
// without one.
func serviceURL(entry *api.ServiceEntry) string {
	host := entry.Service.Address
	if host == "" && entry.Node != nil {
		host = entry.Node.Address
	}
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(entry.Service.Port))
}

// pick rotates through healthy instances so cart and order traffic is
// spread across replicas.
func (c *ConsulClient) pick(entries []*api.ServiceEntry) *api.ServiceEntry {
	n := c.next.Add(1) - 1
	return entries[n%uint64(len(entries))]
}

// GetServiceURL returns the base URL of a healthy instance of serviceName.
func (c *ConsulClient) GetServiceURL(serviceName string) (string, error) {
	entries, _, err := c.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no healthy instances of %s found", serviceName)
	}
	return serviceURL(c.pick(entries)), nil
}
