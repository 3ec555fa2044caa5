package tinkgrafpe

import (
	"fmt"
	"sync"

	"github.com/google/tink/go/core/registry"
)

var (
	registerOnce sync.Once
	registerErr  error
)

func init() {
	if err := Register(); err != nil {
		panic(fmt.Sprintf("tinkgrafpe.init() failed: %v", err))
	}
}

// Register adds the GraFPE KeyManager to Tink's registry. It is safe to call
// multiple times, and succeeds if a manager for KeyTypeURL is already
// registered.
func Register() error {
	registerOnce.Do(func() {
		if _, err := registry.GetKeyManager(KeyTypeURL); err == nil {
			return
		}
		registerErr = registry.RegisterKeyManager(NewKeyManager())
	})
	return registerErr
}
