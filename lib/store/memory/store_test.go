package memory

import (
	"testing"

	"github.com/devinalvaro/conver/lib/store"
	storetesting "github.com/devinalvaro/conver/lib/store/testing"
)

func TestMemoryRoutingStore(t *testing.T) {
	storetesting.RunRoutingStoreTests(t, "Memory", func() store.RoutingStore {
		return NewRoutingStore()
	})
}
