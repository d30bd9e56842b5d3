package cache

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	data := []byte("narrativa")
	if err := c.Save(ctx, "k", data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data[0] = 'X'
	got, ok, _ := c.Get(ctx, "k")
	if !ok || string(got) != "narrativa" {
		t.Fatalf("got %q ok=%v; saved bytes must be copied", got, ok)
	}
	got[0] = 'Y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "narrativa" {
		t.Fatal("returned bytes must be copied")
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := KeyFrom("m", string(rune('a'+i)))
			_ = c.Save(context.Background(), k, []byte{byte(i)})
			_, _, _ = c.Get(context.Background(), k)
		}(i)
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Fatalf("Len = %d, want 16", c.Len())
	}
}

var (
	_ Store = (*LLMCache)(nil)
	_ Store = (*MemoryCache)(nil)
	_ Store = (*RedisCache)(nil)
)
