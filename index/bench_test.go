package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchJavaSource is a realistic Java file with constructors, overloads,
// generics, nested types and an anonymous class.
const benchJavaSource = `package com.example.bench;

import java.util.ArrayList;
import java.util.List;
import java.util.Map;

public class Inventory<T extends Comparable<T>> {
    private final List<T> items = new ArrayList<>();
    private final Map<String, Integer> counts;

    public Inventory(Map<String, Integer> counts) {
        this.counts = counts;
    }

    public void add(T item) {
        items.add(item);
    }

    public void add(T item, int times) {
        for (int i = 0; i < times; i++) {
            add(item);
        }
    }

    public T max() {
        T best = null;
        for (T item : items) {
            if (best == null || item.compareTo(best) > 0) {
                best = item;
            }
        }
        return best;
    }

    public int[][] histogram(int buckets, double... weights) {
        return new int[buckets][weights.length];
    }

    public Runnable reporter(final String prefix) {
        return new Runnable() {
            @Override
            public void run() {
                System.out.println(prefix + items.size());
            }
        };
    }

    static class Entry implements Comparable<Entry> {
        final String name;
        final long quantity;

        Entry(String name, long quantity) {
            this.name = name;
            this.quantity = quantity;
        }

        @Override
        public int compareTo(Entry other) {
            return Long.compare(quantity, other.quantity);
        }
    }
}
`

// writeBenchFiles writes n copies of benchJavaSource under distinct packages.
func writeBenchFiles(b *testing.B, dir string, n int) []string {
	b.Helper()
	paths := make([]string, n)
	for i := range n {
		path := filepath.Join(dir, fmt.Sprintf("Inventory%d.java", i))
		if err := os.WriteFile(path, []byte(benchJavaSource), 0o644); err != nil {
			b.Fatal(err)
		}
		paths[i] = path
	}
	return paths
}

func benchmarkIndexFiles(b *testing.B, parallel bool) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		dir := b.TempDir()
		e, err := New(filepath.Join(dir, "bench.db"), WithParallel(parallel))
		if err != nil {
			b.Fatal(err)
		}
		paths := writeBenchFiles(b, dir, 32)
		b.StartTimer()

		if _, err := e.IndexFiles(ctx, paths); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkIndexFiles_Serial measures extraction of 32 files one at a time.
func BenchmarkIndexFiles_Serial(b *testing.B) { benchmarkIndexFiles(b, false) }

// BenchmarkIndexFiles_Parallel measures the worker-pool pipeline on the same input.
func BenchmarkIndexFiles_Parallel(b *testing.B) { benchmarkIndexFiles(b, true) }

// BenchmarkQueryMethodAt measures the position lookup against a populated index.
func BenchmarkQueryMethodAt(b *testing.B) {
	dir := b.TempDir()
	e, err := New(filepath.Join(dir, "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer e.Close()
	paths := writeBenchFiles(b, dir, 8)
	if _, err := e.IndexFiles(context.Background(), paths); err != nil {
		b.Fatal(err)
	}
	q := e.Query()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Line 42 is inside the anonymous Runnable's run().
		m, err := q.MethodAt(paths[i%len(paths)], 42, 20)
		if err != nil {
			b.Fatal(err)
		}
		if m == nil {
			b.Fatal("no method at position")
		}
	}
}
