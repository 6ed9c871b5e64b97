package striped

import (
	"strconv"
	"testing"
)

var (
	benchDataSmall [16]string
	benchData      [1024]string
	benchDataLarge [1 << 16]string
)

func init() {
	for i := range benchDataSmall {
		benchDataSmall[i] = "small-" + strconv.Itoa(i)
	}
	for i := range benchData {
		benchData[i] = "key-" + strconv.Itoa(i)
	}
	for i := range benchDataLarge {
		benchDataLarge[i] = "large-" + strconv.Itoa(i)
	}
}

func BenchmarkMapGetValueSmall(b *testing.B) {
	benchmarkMapGetValue(b, benchDataSmall[:])
}

func BenchmarkMapGetValue(b *testing.B) {
	benchmarkMapGetValue(b, benchData[:])
}

func BenchmarkMapGetValueLarge(b *testing.B) {
	benchmarkMapGetValue(b, benchDataLarge[:])
}

func benchmarkMapGetValue(b *testing.B, data []string) {
	b.ReportAllocs()
	m := NewMap[string, int](WithStripes(64))
	for i := range data {
		m.Insert(data[i], i)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = m.GetValue(data[i])
			i++
			if i >= len(data) {
				i = 0
			}
		}
	})
}

func BenchmarkMapInsert(b *testing.B) {
	benchmarkMapInsert(b, benchData[:])
}

func BenchmarkMapInsertLarge(b *testing.B) {
	benchmarkMapInsert(b, benchDataLarge[:])
}

func benchmarkMapInsert(b *testing.B, data []string) {
	b.ReportAllocs()
	m := NewMap[string, int](WithStripes(64))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Insert(data[i], i)
			i++
			if i >= len(data) {
				i = 0
			}
		}
	})
}

func BenchmarkMapSetComputedValue(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[string, int](WithStripes(64))
	data := benchData[:]
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.SetComputedValue(data[i], func(v *int, _ string) bool {
				*v++
				return true
			})
			i++
			if i >= len(data) {
				i = 0
			}
		}
	})
}

func BenchmarkMapMixed(b *testing.B) {
	b.ReportAllocs()
	m := NewMap[string, int](WithStripes(64))
	data := benchData[:]
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			switch i % 10 {
			case 0:
				m.Insert(data[i], i)
			case 1:
				m.Erase(data[i])
			default:
				_, _ = m.GetValue(data[i])
			}
			i++
			if i >= len(data) {
				i = 0
			}
		}
	})
}

func BenchmarkInsertBulk(b *testing.B) {
	for _, size := range []int{16, 1024, 1 << 16} {
		entries := make([]Entry[int, int], size)
		for i := range entries {
			entries[i] = Entry[int, int]{Key: i, Value: i}
		}
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c := New[int, int](WithBuckets(size), WithStripes(16))
				c.InsertBulkUnique(entries)
			}
		})
		b.Run(strconv.Itoa(size)+"/parallel", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c := New[int, int](WithBuckets(size), WithStripes(16), WithParallelBulk(1024))
				c.InsertBulkUnique(entries)
			}
		})
	}
}

func BenchmarkRehash(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		c := New[int, int]()
		c.DisableRehash()
		for k := 0; k < 1<<14; k++ {
			c.InsertAlways(k, k)
		}
		c.EnableRehash()
		b.StartTimer()
		c.Rehash(1 << 14)
	}
}
