package cache

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, string]()

	t.Run("Set and Get", func(t *testing.T) {
		cache.Set("test-key", "test-value")

		got, exists := cache.Get("test-key")
		if !exists {
			t.Error("Expected key to exist")
		}
		if got != "test-value" {
			t.Errorf("Expected %q, got %q", "test-value", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, exists := cache.Get("non-existent"); exists {
			t.Error("Expected key to not exist")
		}
	})

	t.Run("Overwrite existing key", func(t *testing.T) {
		cache.Set("overwrite-key", "value1")
		cache.Set("overwrite-key", "value2")

		if got, _ := cache.Get("overwrite-key"); got != "value2" {
			t.Errorf("Expected %q, got %q", "value2", got)
		}
	})
}

func TestCache_Delete(t *testing.T) {
	cache := NewCache[string, string]()

	t.Run("Delete existing key reports presence", func(t *testing.T) {
		cache.Set("delete-key", "delete-value")
		if !cache.Delete("delete-key") {
			t.Error("Expected Delete to report the key was present")
		}
		if _, exists := cache.Get("delete-key"); exists {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("Delete non-existent key", func(t *testing.T) {
		if cache.Delete("non-existent") {
			t.Error("Expected Delete to report absence")
		}
	})
}

func TestCache_KeysAndLen(t *testing.T) {
	cache := NewCache[string, int]()
	cache.Set("b", 2)
	cache.Set("a", 1)
	cache.Set("c", 3)

	if cache.Len() != 3 {
		t.Errorf("Expected 3 items, got %d", cache.Len())
	}

	keys := cache.Keys()
	slices.Sort(keys)
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("Expected sorted keys [a b c], got %v", keys)
	}

	cache.Clear()
	if cache.Len() != 0 || len(cache.Keys()) != 0 {
		t.Error("Expected cache to be empty after Clear")
	}
}

func TestCache_Concurrency(t *testing.T) {
	cache := NewCache[int, string]()
	const numGoroutines = 50
	const numOperations = 200

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cache.Set(id*numOperations+j, fmt.Sprintf("value-%d-%d", id, j))
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cache.Get(id*numOperations + j)
				cache.Keys()
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != numGoroutines*numOperations {
		t.Errorf("Expected %d items, got %d", numGoroutines*numOperations, cache.Len())
	}
}

func TestRenderedMarkupCache(t *testing.T) {
	ClearRenderedMarkupCache()

	t.Run("Set and get rendered markup", func(t *testing.T) {
		SetRenderedMarkup("hash", "gruvbox", "<p>x</p>")

		got, found := GetRenderedMarkup("hash", "gruvbox")
		if !found || got != "<p>x</p>" {
			t.Errorf("Expected cached markup, got %q (found=%v)", got, found)
		}
	})

	t.Run("Different syntax theme creates separate entries", func(t *testing.T) {
		if _, found := GetRenderedMarkup("hash", "monokai"); found {
			t.Error("Expected no entry for another theme")
		}
	})

	t.Run("Clear rendered markup cache", func(t *testing.T) {
		ClearRenderedMarkupCache()
		if _, found := GetRenderedMarkup("hash", "gruvbox"); found {
			t.Error("Expected all cached content to be cleared")
		}
	})
}
