package bench

import (
	"runtime"
	"testing"
)

func BenchmarkUncontended(b *testing.B) {
	for _, name := range Variants() {
		b.Run(name, func(b *testing.B) {
			f, err := lookup(name)
			if err != nil {
				b.Fatal(err)
			}
			lockers, err := f(Config{Variant: name, Workers: 1, Iters: 1})
			if err != nil {
				b.Fatal(err)
			}
			l := lockers()
			b.ReportAllocs()
			for b.Loop() {
				l.Lock()
				l.Unlock()
			}
		})
	}
}

func BenchmarkContended(b *testing.B) {
	workers := runtime.GOMAXPROCS(0)
	for _, name := range Variants() {
		b.Run(name, func(b *testing.B) {
			f, err := lookup(name)
			if err != nil {
				b.Fatal(err)
			}
			lockers, err := f(Config{Variant: name, Workers: workers, Iters: 1})
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				l := lockers()
				for pb.Next() {
					l.Lock()
					l.Unlock()
				}
			})
		})
	}
}
