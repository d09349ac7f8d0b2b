package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// El TTL se repara en cada llamada: si la clave quedó sin expiración (por
// ejemplo tras un fallo entre INCR y EXPIRE) no debe contar para siempre.
const redisMailAllowScript = `
local count = redis.call("INCR", KEYS[1])
if redis.call("TTL", KEYS[1]) < 0 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`

type redisMailRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisMailRateLimiter(client *redis.Client, window time.Duration, max int) MailRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisMailRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "mail:rl:",
	}
}

// Allow cuenta solicitudes por dirección dentro de la ventana. Ante cualquier
// error de redis deja pasar: el límite de correo no puede tumbar el flujo.
func (l *redisMailRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisMailAllowScript, []string{l.redisKey(normalized)}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// redisKey almacena un digest de la dirección, no la dirección en claro.
func (l *redisMailRateLimiter) redisKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return l.prefix + hex.EncodeToString(sum[:])
}
