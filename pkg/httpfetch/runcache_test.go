package httpfetch

import "testing"

func TestInProcessCache_SetThenGet(t *testing.T) {
	c := NewInProcessCache()
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("expected hit with value 42, got %v, %v", v, ok)
	}
}

func TestInProcessCache_OverwritesExistingKey(t *testing.T) {
	c := NewInProcessCache()
	c.Set("k", "first")
	c.Set("k", "second")
	v, ok := c.Get("k")
	if !ok || v.(string) != "second" {
		t.Errorf("expected overwritten value 'second', got %v", v)
	}
}
