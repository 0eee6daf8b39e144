package benchmarks

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/randalmurphal/tutorgraph/pkg/pipeline/cache"
	"github.com/randalmurphal/tutorgraph/pkg/pipeline/prompt"
)

var response = []byte(strings.Repeat("```yaml\ntitle: x\ncontent: |\n  body\n```\n", 50))

func createSQLiteStore(b *testing.B) *cache.SQLiteStore {
	b.Helper()
	store, err := cache.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func benchmarkPut(b *testing.B, store cache.Store) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Put(nodeID(i%100), response)
	}
}

func benchmarkGet(b *testing.B, store cache.Store) {
	key := cache.Key("model", "prompt")
	_ = store.Put(key, response)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Get(key)
	}
}

func BenchmarkMemoryStore_Put(b *testing.B) {
	benchmarkPut(b, cache.NewMemoryStore())
}

func BenchmarkMemoryStore_Get(b *testing.B) {
	benchmarkGet(b, cache.NewMemoryStore())
}

func BenchmarkSQLiteStore_Put(b *testing.B) {
	benchmarkPut(b, createSQLiteStore(b))
}

func BenchmarkSQLiteStore_Get(b *testing.B) {
	benchmarkGet(b, createSQLiteStore(b))
}

// BenchmarkKey measures cache key hashing of a file-sized prompt.
func BenchmarkKey(b *testing.B) {
	p := strings.Repeat("export class A {}\n", 5000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Key("model", p)
	}
}

// BenchmarkPromptRender measures rendering a prompt around a large file.
func BenchmarkPromptRender(b *testing.B) {
	set := prompt.NewSet(map[string]string{"analyze": "File: ${file_path}\n```\n${content}\n```\n"})
	vars := map[string]any{
		"file_path": "src/a.ts",
		"content":   strings.Repeat("const x = `${y}`;\n", 5000),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = set.Render("analyze", vars)
	}
}
