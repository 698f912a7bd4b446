// Package cache implementa stock.ItemCache sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
)

var _ stock.ItemCache = (*RedisItemCache)(nil)

const (
	keyPrefix = "stock:item:"
	genPrefix = "stock:item-gen:"

	// genTTL vida de la clave de generación. Debe superar con holgura la duración de una lectura.
	genTTL = 24 * time.Hour
)

// setIfCurrent escribe KEYS[2] solo si la generación KEYS[1] sigue valiendo ARGV[1].
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if gen == false then gen = '0' end
if gen ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// RedisItemCache guarda ItemDetail serializado en JSON con TTL.
type RedisItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisItemCache construye la caché. ttl <= 0 guarda sin expiración.
func NewRedisItemCache(client *redis.Client, ttl time.Duration) *RedisItemCache {
	return &RedisItemCache{client: client, ttl: ttl}
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func itemKey(id string) string {
	return keyPrefix + id
}

func genKey(id string) string {
	return genPrefix + id
}

// Get devuelve (detail, true, nil) en un acierto y (nil, false, nil) si la clave no existe.
func (c *RedisItemCache) Get(ctx context.Context, id string) (*stock.ItemDetail, bool, error) {
	value, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var detail stock.ItemDetail
	if err := json.Unmarshal(value, &detail); err != nil {
		return nil, false, fmt.Errorf("decodificar ítem en caché: %w", err)
	}
	return &detail, true, nil
}

// Version generación actual del ítem (0 si nunca se invalidó).
func (c *RedisItemCache) Version(ctx context.Context, id string) (int64, error) {
	v, err := c.client.Get(ctx, genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generación: %w", err)
	}
	return v, nil
}

// Set guarda el detalle con el TTL configurado si la generación sigue siendo version.
func (c *RedisItemCache) Set(ctx context.Context, id string, version int64, detail *stock.ItemDetail) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("codificar ítem para caché: %w", err)
	}
	err = setIfCurrent.Run(ctx, c.client,
		[]string{genKey(id), itemKey(id)},
		strconv.FormatInt(version, 10), payload, c.ttl.Milliseconds(),
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate incrementa la generación y elimina la clave de cada id en una transacción.
func (c *RedisItemCache) Invalidate(ctx context.Context, ids ...string) error {
	keep := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keep = append(keep, id)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range keep {
			pipe.Incr(ctx, genKey(id))
			pipe.Expire(ctx, genKey(id), genTTL)
			pipe.Del(ctx, itemKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}
