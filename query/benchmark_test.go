package query

import (
	"context"
	"io"
	"strings"
	"testing"
)

func benchmarkSource() string {
	var b strings.Builder
	b.WriteString("total = 0;\n")
	for i := 0; i < 200; i++ {
		b.WriteString("total = total + (3 * 4 - 2) % 7;\n")
	}
	b.WriteString("[total, total / 2];\n")
	return b.String()
}

func BenchmarkTokenize(b *testing.B) {
	source := benchmarkSource()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Tokenize(source); err != nil {
			b.Fatalf("tokenize failed: %v", err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	source := benchmarkSource()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(source); err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
}

func BenchmarkEvaluateCached(b *testing.B) {
	engine := MustNewEngine(Config{Output: io.Discard})
	source := benchmarkSource()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Evaluate(context.Background(), source); err != nil {
			b.Fatalf("evaluate failed: %v", err)
		}
	}
}

func BenchmarkEvaluateUncached(b *testing.B) {
	engine := MustNewEngine(Config{Output: io.Discard, MaxCachedPrograms: -1})
	source := benchmarkSource()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Evaluate(context.Background(), source); err != nil {
			b.Fatalf("evaluate failed: %v", err)
		}
	}
}
