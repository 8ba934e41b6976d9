package cache

import (
	"sync"
	"testing"
	"time"
)

// TestCache_New tests cache creation.
func TestCache_New(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.store == nil {
		t.Error("cache store not initialized")
	}
}

// TestCache_BasicOperations tests Get, Set, and Delete.
func TestCache_BasicOperations(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	t.Run("Set and Get", func(t *testing.T) {
		c.Set("key1", "value1")

		val, found := c.Get("key1")
		if !found {
			t.Error("expected key1 to be found")
		}
		if val != "value1" {
			t.Errorf("expected value1, got %v", val)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, found := c.Get("nonexistent")
		if found {
			t.Error("expected nonexistent key to not be found")
		}
	})

	t.Run("Set and Delete", func(t *testing.T) {
		c.Set("key2", "value2")
		c.Delete("key2")

		_, found := c.Get("key2")
		if found {
			t.Error("expected key2 to be deleted")
		}
	})

	t.Run("Delete non-existent key", func(t *testing.T) {
		// Should not panic
		c.Delete("nonexistent")
	})
}

// TestCache_SetWithTTL tests custom TTL.
func TestCache_SetWithTTL(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	// Set with very short TTL
	c.SetWithTTL("expiring", "value", 50*time.Millisecond)

	// Should exist immediately
	_, found := c.Get("expiring")
	if !found {
		t.Error("expected key to exist immediately")
	}

	// Wait for expiration
	time.Sleep(100 * time.Millisecond)

	// Should be expired
	_, found = c.Get("expiring")
	if found {
		t.Error("expected key to be expired")
	}
}

// TestCache_Clear tests clearing all items.
func TestCache_Clear(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	if count := c.ItemCount(); count != 3 {
		t.Errorf("expected 3 items, got %d", count)
	}

	c.Clear()

	if count := c.ItemCount(); count != 0 {
		t.Errorf("expected 0 items after clear, got %d", count)
	}

	_, found := c.Get("key1")
	if found {
		t.Error("expected key1 to be cleared")
	}
}

// TestCache_GetStats tests hit and miss accounting.
func TestCache_GetStats(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	c.Set("stats", "cached")

	// Two hits, one miss
	c.Get("stats")
	c.Get("stats")
	c.Get("missing")

	stats := c.GetStats()
	if stats.ItemCount != 1 {
		t.Errorf("expected ItemCount=1, got %d", stats.ItemCount)
	}
	if stats.Hits != 2 {
		t.Errorf("expected Hits=2, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected Misses=1, got %d", stats.Misses)
	}
}

// TestCache_ConcurrentAccess tests thread-safety with concurrent operations.
func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	const numGoroutines = 50
	const numOperations = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 3)

	// Writers
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.Set("mixed-"+string(rune('a'+id%26)), j)
			}
		}(i)
	}

	// Readers
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.Get("mixed-" + string(rune('a'+id%26)))
			}
		}(i)
	}

	// Deleters
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.Delete("mixed-" + string(rune('a'+id%26)))
			}
		}(i)
	}

	wg.Wait()
	// Should not panic - test passes if we get here
}

// TestCache_Overwrite tests overwriting existing keys.
func TestCache_Overwrite(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)

	c.Set("key", "value1")

	val, _ := c.Get("key")
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}

	c.Set("key", "value2")

	val, _ = c.Get("key")
	if val != "value2" {
		t.Errorf("expected value2, got %v", val)
	}

	if count := c.ItemCount(); count != 1 {
		t.Errorf("expected 1 item, got %d", count)
	}
}

// TestCache_DefaultExpiration tests default TTL behavior.
func TestCache_DefaultExpiration(t *testing.T) {
	// Create cache with 100ms default TTL
	c := New(100*time.Millisecond, 200*time.Millisecond)

	c.Set("key", "value")

	_, found := c.Get("key")
	if !found {
		t.Error("expected key to exist immediately")
	}

	time.Sleep(150 * time.Millisecond)

	_, found = c.Get("key")
	if found {
		t.Error("expected key to be expired after default TTL")
	}
}
