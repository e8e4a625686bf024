package spinx

import (
	"fmt"
	"sync"
	"testing"
)

func TestTicketLockGroupBasic(t *testing.T) {
	var g TicketLockGroup[string]
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	counter := 0
	for range n {
		go func() {
			defer wg.Done()
			g.Lock("k")
			counter++
			g.Unlock("k")
		}()
	}
	wg.Wait()
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}

func TestTicketLockGroupManyKeys(t *testing.T) {
	var g TicketLockGroup[string]
	const keys = 8
	const n = 50
	counters := make([]int, keys)
	var wg sync.WaitGroup
	wg.Add(keys * n)
	for k := range keys {
		key := fmt.Sprintf("key-%d", k)
		for range n {
			go func() {
				defer wg.Done()
				g.Lock(key)
				counters[k]++
				g.Unlock(key)
			}()
		}
	}
	wg.Wait()
	for k, c := range counters {
		if c != n {
			t.Fatalf("key %d counter = %d, want %d", k, c, n)
		}
	}
}
