package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newSharedStore spins up an in-process Redis plus a client wired to it.
// Both are torn down with the test; mr drives TTL expiry via FastForward.
func newSharedStore(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}
