package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iggydv12/gogrocery/internal/storage"
	"github.com/iggydv12/gogrocery/internal/storage/memory"
	"github.com/iggydv12/gogrocery/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ItemStore {
		s := memory.New()
		require.NoError(t, s.Init(context.Background()))
		t.Cleanup(func() { s.Close() })
		return s
	})
}
