package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/agentkit/agentkit/cache"
)

func ExampleNew() {
	ctx := context.Background()

	backend := cache.NewMemory(cache.Config{MaxSize: 100, DefaultTTL: time.Hour})
	c, err := cache.New(backend)
	if err != nil {
		panic(err)
	}

	_ = c.Set(ctx, "user:42", "alice", 0)
	name, _ := c.Get(ctx, "user:42")
	fmt.Println(name)
	// Output: alice
}

func ExampleCache_Memoize() {
	ctx := context.Background()

	backend := cache.NewMemory(cache.DefaultConfig())
	c, _ := cache.New(backend)

	calls := 0
	square := c.Memoize("square", time.Minute, func(_ context.Context, args ...any) (any, error) {
		calls++
		n := args[0].(int)
		return n * n, nil
	})

	a, _ := square(ctx, 7)
	b, _ := square(ctx, 7)
	fmt.Println(a, b, calls)
	// Output: 49 49 1
}

func ExampleNewMultiLevel() {
	ctx := context.Background()

	l1 := cache.NewMemory(cache.Config{MaxSize: 10, DefaultTTL: time.Minute})
	l2 := cache.NewMemory(cache.Config{MaxSize: 1000, DefaultTTL: time.Hour})
	ml := cache.NewMultiLevel(l1, l2)

	_ = ml.Set(ctx, "session", "token", 0)
	v, _ := ml.Get(ctx, "session")

	stats := ml.Stats()
	fmt.Println(v, stats.L1Hits)
	// Output: token 1
}

func ExampleCache_GetOrLoad() {
	ctx := context.Background()

	c, _ := cache.New(cache.NewMemory(cache.DefaultConfig()))

	load := func(context.Context) (any, error) {
		return "expensive result", nil
	}

	v, _ := c.GetOrLoad(ctx, "report:2024", load, 10*time.Minute)
	fmt.Println(v)
	// Output: expensive result
}
