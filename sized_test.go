package deepsize

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestSized(t *testing.T) {
	t.Run("CapturesTheTotal", func(t *testing.T) {
		entry := NewSized(make([]byte, 0, 64))
		assert.Equal(t, SizeOf[[]byte]()+64, entry.Bytes)
	})

	t.Run("ReportsTheHeapPortion", func(t *testing.T) {
		entry := NewSized(make([]byte, 0, 64))
		assert.Equal(t, uintptr(64), entry.SizeChildren(nil))
	})

	t.Run("ScalarCapturesInlineOnly", func(t *testing.T) {
		entry := NewSized(uint64(9))
		assert.Equal(t, unsafe.Sizeof(uint64(0)), entry.Bytes)
		assert.Zero(t, entry.SizeChildren(nil))
	})

	t.Run("CountsInsideAHolder", func(t *testing.T) {
		type cacheLine struct {
			Key   string
			Entry Sized[[]byte]
		}
		line := cacheLine{Key: heapString('k', 8), Entry: NewSized(make([]byte, 0, 32))}
		assert.Equal(t, unsafe.Sizeof(line)+8+32, Of(line),
			"the holder replays the captured figure instead of re-walking the entry")
	})

	t.Run("StaleAfterMutation", func(t *testing.T) {
		entry := NewSized(make([]byte, 0, 16))
		entry.Value = append(entry.Value, make([]byte, 100)...)
		assert.Equal(t, SizeOf[[]byte]()+16, entry.Bytes, "the figure is a capture, not a live view")
		fresh := NewSized(entry.Value)
		assert.GreaterOrEqual(t, fresh.Bytes, SizeOf[[]byte]()+100)
	})
}
