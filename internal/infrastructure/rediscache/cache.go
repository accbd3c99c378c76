// Package rediscache implementa el side-cache de consultas sobre Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
)

var _ ledger.QueryCache = (*Cache)(nil)

// Cache side-cache JSON con TTL fijo e invalidación por prefijo de tenant.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache construye el cache. Un TTL <= 0 se normaliza a 5 minutos.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// GetOrPopulate intenta resolver key desde Redis; en miss ejecuta loader,
// guarda el JSON resultante con TTL y lo decodifica en dest. Decodificar
// siempre desde los bytes serializados mantiene hits y misses simétricos.
func (c *Cache) GetOrPopulate(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader requerido")
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return json.Unmarshal(raw, dest)
}

// InvalidateByPrefix elimina todas las claves bajo el prefijo usando SCAN
// incremental, sin bloquear el servidor como haría KEYS.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", prefix, err)
	}
	return nil
}
