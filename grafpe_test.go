package grafpe

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/adambudziak/grafpe/subtle"
)

var (
	testKey = []byte("0123456789abcdef")
	testIV  = []byte("fedcba9876543210")
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	sharedOnce   sync.Once
	sharedCipher *Grafpe
	sharedErr    error
)

// testCipher returns a cipher over [0, 97) shared by the tests in this
// package. Building the graph dominates the cost of each test.
func testCipher(t testing.TB) *Grafpe {
	t.Helper()
	sharedOnce.Do(func() {
		sharedCipher, sharedErr = New(testKey, testIV, DefaultParams(97), WithLogger(quietLogger()))
	})
	if sharedErr != nil {
		t.Fatalf("Failed to create cipher: %v", sharedErr)
	}
	return sharedCipher
}

func TestKnownAnswers(t *testing.T) {
	c := testCipher(t)

	vectors := []struct {
		in    []uint64
		tweak Tweak
		want  []uint64
	}{
		{[]uint64{1, 2}, 0, []uint64{85, 79}},
		{[]uint64{5, 17, 42, 88}, 7, []uint64{40, 54, 84, 36}},
		{[]uint64{96, 0, 48}, 0xdeadbeef, []uint64{6, 60, 18}},
	}
	for _, v := range vectors {
		got, err := c.Encrypt(v.in, v.tweak)
		if err != nil {
			t.Fatalf("Failed to encrypt %v: %v", v.in, err)
		}
		if !reflect.DeepEqual(got, v.want) {
			t.Errorf("Encrypt(%v, %d) = %v, want %v", v.in, v.tweak, got, v.want)
		}
	}

	scalars := []struct {
		x, want uint64
		tweak   Tweak
	}{
		{0, 30, 0},
		{42, 39, 3},
		{96, 78, 0xdeadbeef},
	}
	for _, v := range scalars {
		got, err := c.Scalar().Encrypt(v.x, v.tweak)
		if err != nil {
			t.Fatalf("Failed to encrypt %d: %v", v.x, err)
		}
		if got != v.want {
			t.Errorf("Scalar().Encrypt(%d, %d) = %d, want %d", v.x, v.tweak, got, v.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	c := testCipher(t)
	inputs := [][]uint64{
		{},
		{0},
		{96},
		{1, 2},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{96, 95, 94, 93, 92, 91, 90},
		{5, 17, 42, 88, 3, 61, 23, 11, 0, 96, 50, 49},
	}
	for _, tweak := range []Tweak{0, 1, 0xdeadbeef, ^Tweak(0)} {
		for _, in := range inputs {
			ct, err := c.Encrypt(in, tweak)
			if err != nil {
				t.Fatalf("Failed to encrypt %v: %v", in, err)
			}
			if len(ct) != len(in) {
				t.Fatalf("Length not preserved: %d != %d", len(ct), len(in))
			}
			for i, v := range ct {
				if v >= c.Size() {
					t.Errorf("Ciphertext element %d is %d, outside [0, %d)", i, v, c.Size())
				}
			}
			pt, err := c.Decrypt(ct, tweak)
			if err != nil {
				t.Fatalf("Failed to decrypt %v: %v", ct, err)
			}
			if !reflect.DeepEqual(pt, in) {
				t.Errorf("Round trip failed with tweak %d: got %v, want %v", tweak, pt, in)
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	c := testCipher(t)
	other, err := New(testKey, testIV, DefaultParams(97), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	in := []uint64{1, 2, 3, 4, 5}
	a, _ := c.Encrypt(in, 9)
	b, _ := c.Encrypt(in, 9)
	o, _ := other.Encrypt(in, 9)
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, o) {
		t.Errorf("Encryption is not deterministic: %v %v %v", a, b, o)
	}
}

func TestTweakChangesCiphertext(t *testing.T) {
	c := testCipher(t)
	in := []uint64{10, 20, 30, 40, 50, 60, 70, 80}
	a, _ := c.Encrypt(in, 1)
	b, _ := c.Encrypt(in, 2)
	if reflect.DeepEqual(a, b) {
		t.Errorf("Different tweaks gave the same ciphertext %v", a)
	}

	// Decrypting under the wrong tweak succeeds but yields another value.
	wrong, err := c.Decrypt(a, 2)
	if err != nil {
		t.Fatalf("Failed to decrypt: %v", err)
	}
	if reflect.DeepEqual(wrong, in) {
		t.Errorf("Wrong tweak recovered the plaintext")
	}
}

func TestDiffusion(t *testing.T) {
	c := testCipher(t)
	in := []uint64{10, 20, 30, 40, 50, 60, 70, 80, 90, 1, 2, 3, 4, 5, 6, 7}
	changed := append([]uint64(nil), in...)
	changed[len(changed)-1]++

	a, _ := c.Encrypt(in, 0)
	b, _ := c.Encrypt(changed, 0)
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	if diff < len(a)/2 {
		t.Errorf("Changing the last element changed only %d of %d positions", diff, len(a))
	}
	t.Logf("%d of %d positions changed", diff, len(a))
}

func TestParamsChangeCiphertext(t *testing.T) {
	in := []uint64{10, 20, 30, 40, 50, 60, 70, 80}
	base, _ := testCipher(t).Encrypt(in, 0)

	variants := map[string]Params{}
	p := DefaultParams(97)
	p.WalkLength = 21
	variants["walk length"] = p
	p = DefaultParams(97)
	p.D = 6
	variants["degree"] = p
	p = DefaultParams(97)
	p.Generator = GeneratorSwap
	variants["generator"] = p

	for name, p := range variants {
		t.Run(name, func(t *testing.T) {
			c, err := New(testKey, testIV, p, WithLogger(quietLogger()))
			if err != nil {
				t.Fatalf("Failed to create cipher: %v", err)
			}
			ct, _ := c.Encrypt(in, 0)
			if reflect.DeepEqual(ct, base) {
				t.Errorf("Changing the %s did not change the ciphertext", name)
			}
			pt, _ := c.Decrypt(ct, 0)
			if !reflect.DeepEqual(pt, in) {
				t.Errorf("Round trip failed: got %v, want %v", pt, in)
			}
		})
	}
}

func TestKeySizes(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		key := make([]byte, size)
		for i := range key {
			key[i] = byte(i * 7)
		}
		c, err := New(key, testIV, DefaultParams(50), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Failed to create cipher with %d-byte key: %v", size, err)
		}
		in := []uint64{1, 49, 25}
		ct, _ := c.Encrypt(in, 3)
		pt, _ := c.Decrypt(ct, 3)
		if !reflect.DeepEqual(pt, in) {
			t.Errorf("Round trip failed with %d-byte key", size)
		}
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		key, iv []byte
		p       Params
		params  bool
	}{
		{"short key", testKey[:15], testIV, DefaultParams(97), false},
		{"long key", append(append([]byte(nil), testKey...), 0), testIV, DefaultParams(97), false},
		{"short iv", testKey, testIV[:8], DefaultParams(97), false},
		{"odd degree", testKey, testIV, Params{N: 97, D: 7, WalkLength: 20}, true},
		{"degree too large", testKey, testIV, Params{N: 8, D: 8, WalkLength: 20}, true},
		{"tiny domain", testKey, testIV, Params{N: 2, D: 2, WalkLength: 20}, true},
		{"dense graph", testKey, testIV, Params{N: 16, D: 14, WalkLength: 20}, true},
		{"zero walk", testKey, testIV, Params{N: 97, D: 8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key, tt.iv, tt.p, WithLogger(quietLogger()))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.params && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestOutOfDomain(t *testing.T) {
	c := testCipher(t)
	if _, err := c.Encrypt([]uint64{1, 97}, 0); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("Expected ErrOutOfDomain from Encrypt, got %v", err)
	}
	if _, err := c.Decrypt([]uint64{200}, 0); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("Expected ErrOutOfDomain from Decrypt, got %v", err)
	}
	if _, err := c.Scalar().Encrypt(97, 0); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("Expected ErrOutOfDomain from Scalar.Encrypt, got %v", err)
	}
}

func TestPrefetchBuildsSameGraph(t *testing.T) {
	pre, err := New(testKey, testIV, DefaultParams(97), WithLogger(quietLogger()), WithPrefetch())
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	in := []uint64{3, 1, 4, 1, 5, 9, 2, 6}
	want, _ := testCipher(t).Encrypt(in, 5)
	got, _ := pre.Encrypt(in, 5)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prefetched graph differs: got %v, want %v", got, want)
	}
}

func TestNewFromGraph(t *testing.T) {
	gen := subtle.NewRiffleGenerator(subtle.NewAESCTRSource(testKey, testIV))
	g, err := subtle.NewGraphBuilder(gen, subtle.WithLogger(quietLogger())).Build(97, DefaultDegree)
	if err != nil {
		t.Fatalf("Failed to build graph: %v", err)
	}
	c, err := NewFromGraph(testKey, g, DefaultWalkLength)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	in := []uint64{3, 1, 4, 1, 5, 9, 2, 6}
	want, _ := testCipher(t).Encrypt(in, 5)
	got, _ := c.Encrypt(in, 5)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cipher over the same graph differs: got %v, want %v", got, want)
	}

	if _, err := NewFromGraph(testKey, g, 0); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for zero walk length, got %v", err)
	}
	broken := &subtle.Graph{N: g.N, D: g.D, Permutations: g.Permutations[:1]}
	if _, err := NewFromGraph(testKey, broken, 20); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for an inconsistent graph, got %v", err)
	}
}

func TestScalarBijective(t *testing.T) {
	c, err := NewScalar(testKey, testIV, DefaultParams(64), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	seen := make(map[uint64]bool)
	for x := uint64(0); x < c.Size(); x++ {
		y, err := c.Encrypt(x, 11)
		if err != nil {
			t.Fatalf("Failed to encrypt %d: %v", x, err)
		}
		if y >= c.Size() || seen[y] {
			t.Fatalf("Encrypt(%d) = %d is out of range or repeated", x, y)
		}
		seen[y] = true
		back, err := c.Decrypt(y, 11)
		if err != nil || back != x {
			t.Fatalf("Decrypt(%d) = %d, %v; want %d", y, back, err, x)
		}
	}
}

func TestScalarMatchesSingletonVector(t *testing.T) {
	// A one-element vector uses the scalar digest in both passes.
	c := testCipher(t)
	s := c.Scalar()
	for x := uint64(0); x < 10; x++ {
		y, _ := s.Encrypt(x, 4)
		v, _ := c.Encrypt([]uint64{x}, 4)
		if v[0] != y {
			t.Errorf("Scalar(%d) = %d, vector gives %d", x, y, v[0])
		}
	}
}

func TestDefaultParams(t *testing.T) {
	tests := []struct {
		n     uint64
		wantD uint64
		valid bool
	}{
		{0, 2, false},
		{2, 2, false},
		{3, 2, true},
		{4, 2, true},
		{5, 2, true},
		{9, 4, true},
		{12, 4, true},
		{16, 6, true},
		{17, DefaultDegree, true},
		{1 << 20, DefaultDegree, true},
	}
	for _, tt := range tests {
		p := DefaultParams(tt.n)
		if p.D != tt.wantD {
			t.Errorf("DefaultParams(%d).D = %d, want %d", tt.n, p.D, tt.wantD)
		}
		if err := p.Validate(); (err == nil) != tt.valid {
			t.Errorf("DefaultParams(%d).Validate() = %v, want valid=%v", tt.n, err, tt.valid)
		}
	}
}

func TestParamsValidateUnknownEnums(t *testing.T) {
	p := DefaultParams(97)
	p.Policy = subtle.BuildPolicy(9)
	if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for unknown policy, got %v", err)
	}
	p = DefaultParams(97)
	p.Generator = GeneratorKind(9)
	if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for unknown generator, got %v", err)
	}
	if GeneratorSwap.String() != "swap" || GeneratorKind(9).String() != "GeneratorKind(9)" {
		t.Errorf("Unexpected generator names")
	}
}

func BenchmarkEncrypt(b *testing.B) {
	c := testCipher(b)
	in := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Encrypt(in, Tweak(i))
	}
}

func BenchmarkScalarEncrypt(b *testing.B) {
	s := testCipher(b).Scalar()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Encrypt(uint64(i%97), 0)
	}
}

func BenchmarkNew(b *testing.B) {
	log := quietLogger()
	for i := 0; i < b.N; i++ {
		if _, err := New(testKey, testIV, DefaultParams(1024), WithLogger(log)); err != nil {
			b.Fatal(err)
		}
	}
}

func TestKeyAndIVChangeCiphertext(t *testing.T) {
	in := []uint64{10, 20, 30, 40, 50, 60, 70, 80}
	base, _ := testCipher(t).Encrypt(in, 0)

	otherKey := []byte("0123456789abcdeF")
	otherIV := []byte("fedcba987654321F")
	for name, kv := range map[string][2][]byte{
		"key": {otherKey, testIV},
		"iv":  {testKey, otherIV},
	} {
		c, err := New(kv[0], kv[1], DefaultParams(97), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Failed to create cipher: %v", err)
		}
		ct, _ := c.Encrypt(in, 0)
		if reflect.DeepEqual(ct, base) {
			t.Errorf("Changing the %s did not change the ciphertext", name)
		}
		pt, _ := c.Decrypt(base, 0)
		if reflect.DeepEqual(pt, in) {
			t.Errorf("Decrypting under a different %s recovered the plaintext", name)
		}
	}
}
