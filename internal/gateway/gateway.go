// Package gateway routes storefront traffic to the backend services found
// in Consul.
package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	CartService  = "cart-service"
	OrderService = "order-service"
)

// Discoverer resolves a service name to a base URL.
type Discoverer interface {
	GetServiceURL(serviceName string) (string, error)
}

type Gateway struct {
	discoverer Discoverer
	fallbacks  map[string]string
	logger     *zap.Logger
	client     *http.Client

	mutex    sync.RWMutex
	proxies  map[string]*httputil.ReverseProxy
	services map[string]string
}

// New builds a gateway for the services named in fallbacks. A nil
// discoverer means the fallback URLs are used as they are.
func New(discoverer Discoverer, fallbacks map[string]string, logger *zap.Logger) *Gateway {
	g := &Gateway{
		discoverer: discoverer,
		fallbacks:  fallbacks,
		logger:     logger,
		client:     &http.Client{Timeout: 2 * time.Second},
		proxies:    make(map[string]*httputil.ReverseProxy),
		services:   make(map[string]string),
	}

	g.Discover()
	return g
}

// Discover refreshes every route from the discoverer.
func (g *Gateway) Discover() {
	for svc, fallback := range g.fallbacks {
		serviceURL := fallback
		if g.discoverer != nil {
			found, err := g.discoverer.GetServiceURL(svc)
			if err != nil {
				g.logger.Warn("⚠️ Service not found, using fallback",
					zap.String("service", svc), zap.String("url", fallback), zap.Error(err))
			} else {
				serviceURL = found
			}
		}
		g.updateProxy(svc, serviceURL)
	}
}

// Watch re-runs Discover every interval until ctx ends.
func (g *Gateway) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Discover()
		}
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.services[serviceName] == serviceURL {
		return
	}

	target, err := url.Parse(serviceURL)
	if err != nil {
		g.logger.Error("❌ Invalid service URL", zap.String("service", serviceName), zap.Error(err))
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.logger.Error("❌ Proxy error", zap.String("service", serviceName), zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "service unavailable"}`)
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	g.logger.Info("✅ Updated route", zap.String("service", serviceName), zap.String("url", serviceURL))
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

// Proxy forwards the request to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": serviceName + " unavailable"})
			return
		}
		g.logger.Debug("🔀 Routing", zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path), zap.String("service", serviceName))
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) snapshot() map[string]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	services := make(map[string]string, len(g.services))
	for k, v := range g.services {
		services[k] = v
	}
	return services
}

// HealthCheck probes every backend's /health in parallel.
func (g *Gateway) HealthCheck(c *gin.Context) {
	services := g.snapshot()

	var (
		mu       sync.Mutex
		statuses = make(map[string]string, len(services))
	)
	eg, ctx := errgroup.WithContext(c.Request.Context())
	for name, serviceURL := range services {
		eg.Go(func() error {
			status := "healthy"
			if !g.probe(ctx, serviceURL+"/health") {
				status = "unhealthy"
			}
			mu.Lock()
			statuses[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	status := "healthy"
	for _, s := range statuses {
		if s != "healthy" {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) probe(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (g *Gateway) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": g.snapshot()})
}

// NewRouter mounts the gateway routes behind CORS for the given origins.
// No origins means any origin.
func NewRouter(g *Gateway, origins []string, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.Use(cors.New(cors.Config{
		AllowOrigins:    origins,
		AllowAllOrigins: len(origins) == 0,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", g.HealthCheck)
	router.GET("/services", g.ListServices)

	cart := g.Proxy(CartService)
	orders := g.Proxy(OrderService)

	router.Any("/products", cart)
	router.Any("/products/*path", cart)
	router.Any("/cart", cart)
	router.Any("/cart/*path", cart)
	router.Any("/orders", orders)
	router.Any("/orders/*path", orders)

	return router
}
