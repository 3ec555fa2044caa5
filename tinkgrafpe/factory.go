// Package tinkgrafpe provides Tink integration for GraFPE.
// This file contains the factory functions for creating GraFPE ciphers from Tink keyset handles.
package tinkgrafpe

import (
	"fmt"

	"github.com/google/tink/go/keyset"

	"github.com/adambudziak/grafpe"
)

// New creates a vector cipher from the primary key of a Tink keyset handle.
// This is the main entry point for users following Tink's pattern.
//
// Example:
//
//	handle, err := keyset.NewHandle(tinkgrafpe.DefaultKeyTemplate(10000))
//	if err != nil {
//	    return err
//	}
//	cipher, err := tinkgrafpe.New(handle)
//	if err != nil {
//	    return err
//	}
//	ciphertext, err := cipher.Encrypt([]uint64{1234, 5678}, 0)
func New(handle *keyset.Handle) (*grafpe.Grafpe, error) {
	if handle == nil {
		return nil, fmt.Errorf("keyset handle cannot be nil")
	}

	primitives, err := handle.Primitives()
	if err != nil {
		return nil, fmt.Errorf("failed to get primitives from handle: %w", err)
	}
	primary := primitives.Primary
	if primary == nil {
		return nil, fmt.Errorf("no primary key found in keyset")
	}

	g, ok := primary.Primitive.(*grafpe.Grafpe)
	if !ok {
		return nil, fmt.Errorf("primary key %d is not a grafpe key (%T)", primary.KeyID, primary.Primitive)
	}
	return g, nil
}

// NewScalar creates a scalar cipher from the primary key of a Tink keyset
// handle. It shares the graph of the vector cipher New would return.
func NewScalar(handle *keyset.Handle) (*grafpe.Scalar, error) {
	g, err := New(handle)
	if err != nil {
		return nil, err
	}
	return g.Scalar(), nil
}
