// Package tinkgrafpe provides Tink integration for GraFPE.
// This file contains the KeyManager implementation that registers GraFPE with Tink's registry.
package tinkgrafpe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/google/tink/go/core/registry"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/proto/tink_go_proto"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/adambudziak/grafpe"
	"github.com/adambudziak/grafpe/subtle"
)

const (
	// KeyTypeURL is the type URL for GraFPE keys in Tink's registry.
	KeyTypeURL = "type.googleapis.com/grafpe.GrafpeKey"
)

// KeyManager implements registry.KeyManager for GraFPE keys.
// Primitives are *grafpe.Grafpe values whose graph is built from the key.
type KeyManager struct {
	typeURL string
	log     logrus.FieldLogger
}

// NewKeyManager creates a new GraFPE key manager logging to the standard
// logrus logger.
func NewKeyManager() *KeyManager {
	return NewKeyManagerWithLogger(logrus.StandardLogger())
}

// NewKeyManagerWithLogger creates a key manager that passes log to the
// graph builder.
func NewKeyManagerWithLogger(log logrus.FieldLogger) *KeyManager {
	return &KeyManager{
		typeURL: KeyTypeURL,
		log:     log,
	}
}

// Primitive parses a serialized Key and builds its cipher.
func (km *KeyManager) Primitive(serializedKey []byte) (interface{}, error) {
	key, err := UnmarshalKey(serializedKey)
	if err != nil {
		return nil, err
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	log := km.log.WithFields(logrus.Fields{
		"n":          key.Params.N,
		"d":          key.Params.D,
		"walkLength": key.Params.WalkLength,
	})
	log.Debug("creating grafpe primitive")
	g, err := grafpe.New(key.KeyValue, key.IV, key.Params, grafpe.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create grafpe: %w", err)
	}
	return g, nil
}

// DoesSupport returns true if this KeyManager supports the given key type URL.
func (km *KeyManager) DoesSupport(typeURL string) bool {
	return typeURL == km.typeURL
}

// TypeURL returns the type URL of the keys managed by this KeyManager.
func (km *KeyManager) TypeURL() string {
	return km.typeURL
}

// NewKey generates a key for the serialized KeyFormat. The returned message
// wraps the serialized Key.
func (km *KeyManager) NewKey(serializedKeyFormat []byte) (proto.Message, error) {
	format, err := UnmarshalKeyFormat(serializedKeyFormat)
	if err != nil {
		return nil, err
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	key := &Key{
		Version:  KeyVersion,
		KeyValue: make([]byte, format.KeySize),
		IV:       make([]byte, subtle.IVSize),
		Params:   format.Params,
	}
	if _, err := rand.Read(key.KeyValue); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	if _, err := rand.Read(key.IV); err != nil {
		return nil, fmt.Errorf("failed to generate random iv: %w", err)
	}
	return wrapperspb.Bytes(key.Marshal()), nil
}

// NewKeyData creates a new KeyData from the given serialized KeyFormat.
func (km *KeyManager) NewKeyData(serializedKeyFormat []byte) (*tink_go_proto.KeyData, error) {
	msg, err := km.NewKey(serializedKeyFormat)
	if err != nil {
		return nil, err
	}
	return &tink_go_proto.KeyData{
		TypeUrl:         km.typeURL,
		Value:           msg.(*wrapperspb.BytesValue).GetValue(),
		KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
	}, nil
}

// Verify that KeyManager implements registry.KeyManager
var _ registry.KeyManager = (*KeyManager)(nil)

// KeyTemplate creates a key template for GraFPE keys with AES-256 (32 bytes)
// and the given parameters:
//
//	handle, err := keyset.NewHandle(tinkgrafpe.KeyTemplate(grafpe.DefaultParams(1000)))
func KeyTemplate(p grafpe.Params) *tink_go_proto.KeyTemplate {
	return keyTemplate(32, p)
}

// KeyTemplateAES128 creates a key template for GraFPE keys with AES-128 (16 bytes).
func KeyTemplateAES128(p grafpe.Params) *tink_go_proto.KeyTemplate {
	return keyTemplate(16, p)
}

// DefaultKeyTemplate creates an AES-256 template with the default parameters
// for a domain of size n.
func DefaultKeyTemplate(n uint64) *tink_go_proto.KeyTemplate {
	return KeyTemplate(grafpe.DefaultParams(n))
}

func keyTemplate(keySize uint32, p grafpe.Params) *tink_go_proto.KeyTemplate {
	format := &KeyFormat{KeySize: keySize, Params: p}
	return &tink_go_proto.KeyTemplate{
		TypeUrl:          KeyTypeURL,
		Value:            format.Marshal(),
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
}

// NewKeysetHandleFromKey creates a keyset handle from raw key material, for
// example a key and iv held in an HSM.
//
// Note: This creates an unencrypted keyset. In production, consider encrypting
// the keyset before storing it using keyset.Write() with an AEAD.
func NewKeysetHandleFromKey(key, iv []byte, p grafpe.Params) (*keyset.Handle, error) {
	k := &Key{Version: KeyVersion, KeyValue: key, IV: iv, Params: p}
	if err := k.Validate(); err != nil {
		return nil, err
	}

	keyIDBytes := make([]byte, 4)
	if _, err := rand.Read(keyIDBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key ID: %w", err)
	}
	keyID := binary.BigEndian.Uint32(keyIDBytes)

	keysetKey := &tink_go_proto.Keyset_Key{
		KeyData: &tink_go_proto.KeyData{
			TypeUrl:         KeyTypeURL,
			Value:           k.Marshal(),
			KeyMaterialType: tink_go_proto.KeyData_SYMMETRIC,
		},
		KeyId:            keyID,
		Status:           tink_go_proto.KeyStatusType_ENABLED,
		OutputPrefixType: tink_go_proto.OutputPrefixType_RAW,
	}
	ks := &tink_go_proto.Keyset{
		PrimaryKeyId: keyID,
		Key:          []*tink_go_proto.Keyset_Key{keysetKey},
	}
	return insecurecleartextkeyset.Read(&keyset.MemReaderWriter{Keyset: ks})
}
