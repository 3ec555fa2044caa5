package tinkgrafpe

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/tink/go/keyset"

	"github.com/adambudziak/grafpe"
)

func benchmarkCipher(b *testing.B, n uint64) *grafpe.Grafpe {
	b.Helper()
	handle, err := keyset.NewHandle(DefaultKeyTemplate(n))
	if err != nil {
		b.Fatalf("Failed to create keyset handle: %v", err)
	}
	c, err := New(handle)
	if err != nil {
		b.Fatalf("Failed to create cipher: %v", err)
	}
	return c
}

// BenchmarkEncrypt benchmarks vector encryption for various lengths
func BenchmarkEncrypt(b *testing.B) {
	c := benchmarkCipher(b, 10000)

	benchmarks := []struct {
		name   string
		length int
	}{
		{"Len_1", 1},
		{"Len_4", 4},
		{"Len_16", 16},
		{"Len_64", 64},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			in := make([]uint64, bm.length)
			for i := range in {
				in[i] = uint64(i * 37 % 10000)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Encrypt(in, 0); err != nil {
					b.Fatalf("Encrypt failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkRoundTrip benchmarks encrypt followed by decrypt
func BenchmarkRoundTrip(b *testing.B) {
	c := benchmarkCipher(b, 10000)
	in := []uint64{1, 22, 333, 4444, 5555, 666, 77, 8}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ct, err := c.Encrypt(in, grafpe.Tweak(i))
		if err != nil {
			b.Fatalf("Encrypt failed: %v", err)
		}
		if _, err := c.Decrypt(ct, grafpe.Tweak(i)); err != nil {
			b.Fatalf("Decrypt failed: %v", err)
		}
	}
}

// BenchmarkConcurrent benchmarks concurrent scalar encryption
func BenchmarkConcurrent(b *testing.B) {
	s := benchmarkCipher(b, 10000).Scalar()
	b.RunParallel(func(pb *testing.PB) {
		var x uint64
		for pb.Next() {
			if _, err := s.Encrypt(x%10000, 0); err != nil {
				b.Fatalf("Encrypt failed: %v", err)
			}
			x++
		}
	})
}

// BenchmarkEncryptAll benchmarks batch encryption of random inputs
func BenchmarkEncryptAll(b *testing.B) {
	s := benchmarkCipher(b, 10000).Scalar()
	r := rand.New(rand.NewSource(1))
	inputs := make([]uint64, 1000)
	for i := range inputs {
		inputs[i] = uint64(r.Intn(10000))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := grafpe.EncryptAll[uint64](context.Background(), s, inputs, 0, 0); err != nil {
			b.Fatalf("EncryptAll failed: %v", err)
		}
	}
}

// BenchmarkPrimitive benchmarks building a cipher from a serialized key
func BenchmarkPrimitive(b *testing.B) {
	km := NewKeyManager()
	k := &Key{Version: KeyVersion, KeyValue: testKey, IV: testIV, Params: grafpe.DefaultParams(10000)}
	serialized := k.Marshal()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := km.Primitive(serialized); err != nil {
			b.Fatalf("Primitive failed: %v", err)
		}
	}
}
