package tinkgrafpe

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/adambudziak/grafpe"
	"github.com/adambudziak/grafpe/subtle"
)

// KeyVersion is the only supported key version.
const KeyVersion = 0

// ErrInvalidKey is returned for key material that cannot be parsed or used.
var ErrInvalidKey = errors.New("tinkgrafpe: invalid key")

// Field numbers of the GrafpeKey message.
const (
	keyFieldVersion    protowire.Number = 1
	keyFieldKeyValue   protowire.Number = 2
	keyFieldIV         protowire.Number = 3
	keyFieldDomainSize protowire.Number = 4
	keyFieldDegree     protowire.Number = 5
	keyFieldWalkLength protowire.Number = 6
	keyFieldPolicy     protowire.Number = 7
	keyFieldGenerator  protowire.Number = 8
)

// Field numbers of the GrafpeKeyFormat message.
const (
	formatFieldKeySize    protowire.Number = 1
	formatFieldDomainSize protowire.Number = 2
	formatFieldDegree     protowire.Number = 3
	formatFieldWalkLength protowire.Number = 4
	formatFieldPolicy     protowire.Number = 5
	formatFieldGenerator  protowire.Number = 6
)

// Key is the key material stored in a keyset. The graph is rebuilt from
// KeyValue, IV and Params whenever a primitive is created.
type Key struct {
	Version  uint32
	KeyValue []byte
	IV       []byte
	Params   grafpe.Params
}

// Marshal encodes k in protobuf wire format.
func (k *Key) Marshal() []byte {
	var b []byte
	b = appendVarint(b, keyFieldVersion, uint64(k.Version))
	b = appendBytes(b, keyFieldKeyValue, k.KeyValue)
	b = appendBytes(b, keyFieldIV, k.IV)
	b = appendVarint(b, keyFieldDomainSize, k.Params.N)
	b = appendVarint(b, keyFieldDegree, k.Params.D)
	b = appendVarint(b, keyFieldWalkLength, uint64(k.Params.WalkLength))
	b = appendVarint(b, keyFieldPolicy, uint64(k.Params.Policy))
	b = appendVarint(b, keyFieldGenerator, uint64(k.Params.Generator))
	return b
}

// Validate checks the version, key and iv sizes and the parameters.
func (k *Key) Validate() error {
	if k.Version != KeyVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidKey, k.Version)
	}
	if !subtle.ValidKeySize(len(k.KeyValue)) {
		return fmt.Errorf("%w: key size %d bytes (must be 16, 24, or 32)", ErrInvalidKey, len(k.KeyValue))
	}
	if len(k.IV) != subtle.IVSize {
		return fmt.Errorf("%w: iv size %d bytes (must be %d)", ErrInvalidKey, len(k.IV), subtle.IVSize)
	}
	if err := k.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

// UnmarshalKey decodes a key produced by Marshal. Unknown fields are skipped.
func UnmarshalKey(b []byte) (*Key, error) {
	f, err := decodeFields(b)
	if err != nil {
		return nil, err
	}
	version, err := f.asUint32(keyFieldVersion)
	if err != nil {
		return nil, err
	}
	walk, err := f.asInt(keyFieldWalkLength)
	if err != nil {
		return nil, err
	}
	policy, err := f.asInt(keyFieldPolicy)
	if err != nil {
		return nil, err
	}
	gen, err := f.asInt(keyFieldGenerator)
	if err != nil {
		return nil, err
	}
	return &Key{
		Version:  version,
		KeyValue: f.bytes[keyFieldKeyValue],
		IV:       f.bytes[keyFieldIV],
		Params: grafpe.Params{
			N:          f.varints[keyFieldDomainSize],
			D:          f.varints[keyFieldDegree],
			WalkLength: walk,
			Policy:     subtle.BuildPolicy(policy),
			Generator:  grafpe.GeneratorKind(gen),
		},
	}, nil
}

// KeyFormat describes the keys a template generates.
type KeyFormat struct {
	KeySize uint32
	Params  grafpe.Params
}

// Marshal encodes f in protobuf wire format.
func (f *KeyFormat) Marshal() []byte {
	var b []byte
	b = appendVarint(b, formatFieldKeySize, uint64(f.KeySize))
	b = appendVarint(b, formatFieldDomainSize, f.Params.N)
	b = appendVarint(b, formatFieldDegree, f.Params.D)
	b = appendVarint(b, formatFieldWalkLength, uint64(f.Params.WalkLength))
	b = appendVarint(b, formatFieldPolicy, uint64(f.Params.Policy))
	b = appendVarint(b, formatFieldGenerator, uint64(f.Params.Generator))
	return b
}

// Validate checks the key size and the parameters.
func (f *KeyFormat) Validate() error {
	if !subtle.ValidKeySize(int(f.KeySize)) {
		return fmt.Errorf("%w: key size %d bytes in template (must be 16, 24, or 32)", ErrInvalidKey, f.KeySize)
	}
	if err := f.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

// UnmarshalKeyFormat decodes a key format produced by Marshal.
func UnmarshalKeyFormat(b []byte) (*KeyFormat, error) {
	f, err := decodeFields(b)
	if err != nil {
		return nil, err
	}
	size, err := f.asUint32(formatFieldKeySize)
	if err != nil {
		return nil, err
	}
	walk, err := f.asInt(formatFieldWalkLength)
	if err != nil {
		return nil, err
	}
	policy, err := f.asInt(formatFieldPolicy)
	if err != nil {
		return nil, err
	}
	gen, err := f.asInt(formatFieldGenerator)
	if err != nil {
		return nil, err
	}
	return &KeyFormat{
		KeySize: size,
		Params: grafpe.Params{
			N:          f.varints[formatFieldDomainSize],
			D:          f.varints[formatFieldDegree],
			WalkLength: walk,
			Policy:     subtle.BuildPolicy(policy),
			Generator:  grafpe.GeneratorKind(gen),
		},
	}, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// fields holds the scalar fields of a decoded message. Later occurrences of
// a field replace earlier ones.
type fields struct {
	varints map[protowire.Number]uint64
	bytes   map[protowire.Number][]byte
}

func decodeFields(b []byte) (*fields, error) {
	f := &fields{
		varints: make(map[protowire.Number]uint64),
		bytes:   make(map[protowire.Number][]byte),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidKey, num, protowire.ParseError(n))
			}
			f.varints[num] = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidKey, num, protowire.ParseError(n))
			}
			f.bytes[num] = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidKey, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func (f *fields) asUint32(num protowire.Number) (uint32, error) {
	v := f.varints[num]
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: field %d overflows uint32", ErrInvalidKey, num)
	}
	return uint32(v), nil
}

func (f *fields) asInt(num protowire.Number) (int, error) {
	v := f.varints[num]
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: field %d overflows int32", ErrInvalidKey, num)
	}
	return int(v), nil
}
