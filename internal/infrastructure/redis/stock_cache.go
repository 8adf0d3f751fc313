package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/pkg/config"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

var _ inventory.StockCache = (*StockCache)(nil)

// NewClient crea el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// StockCache caché de GetStock.
// Claves: stock:<producto>:gen (contador sin TTL) y stock:<producto>:g<gen>:<bodega|all> con TTL.
// Invalidar incrementa el contador; las vistas de generaciones anteriores expiran solas.
type StockCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *logger.Logger
}

// NewStockCache construye la caché. ttl <= 0 usa 60s.
func NewStockCache(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *StockCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StockCache{client: client, ttl: ttl, log: log}
}

// SummaryKey clave de una vista de stock en la generación gen.
func SummaryKey(gen int64, productID, warehouseID string) string {
	if warehouseID == "" {
		warehouseID = "all"
	}
	return "stock:" + productID + ":g" + strconv.FormatInt(gen, 10) + ":" + warehouseID
}

// GenerationKey clave del contador de generación del producto.
func GenerationKey(productID string) string {
	return "stock:" + productID + ":gen"
}

// Generation lee el contador; un producto nunca invalidado está en la generación 0.
func (c *StockCache) Generation(ctx context.Context, productID string) (int64, bool) {
	gen, err := c.client.Get(ctx, GenerationKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: lectura de generación de stock falló")
		return 0, false
	}
	return gen, true
}

// Get devuelve la vista cacheada; cualquier error se trata como miss.
func (c *StockCache) Get(ctx context.Context, gen int64, productID, warehouseID string) (*inventory.StockSummary, bool) {
	raw, err := c.client.Get(ctx, SummaryKey(gen, productID, warehouseID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: lectura de caché de stock falló")
		}
		return nil, false
	}
	var s inventory.StockSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: entrada de caché corrupta")
		return nil, false
	}
	return &s, true
}

// Set guarda la vista bajo la generación en la que se leyó el ledger.
func (c *StockCache) Set(ctx context.Context, gen int64, s *inventory.StockSummary) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, SummaryKey(gen, s.ProductID, s.WarehouseID), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", s.ProductID).Msg("redis: escritura de caché de stock falló")
	}
}

// InvalidateProduct pasa el producto a una nueva generación.
func (c *StockCache) InvalidateProduct(ctx context.Context, productID string) {
	if err := c.client.Incr(ctx, GenerationKey(productID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: invalidación de caché falló")
	}
}
