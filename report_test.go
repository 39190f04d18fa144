package deepsize

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Scan Suite ---

type mockScanned struct {
	Name string
	Buf  []byte
	C    chan int
}

type ScanTestSuite struct {
	suite.Suite
	value *mockScanned
}

func (s *ScanTestSuite) SetupTest() {
	s.value = &mockScanned{
		Name: heapString('x', 100),
		Buf:  make([]byte, 0, 256),
		C:    make(chan int),
	}
}

func (s *ScanTestSuite) row(sizes *Sizes, typeName string) *TypeSize {
	for i := range sizes.Types {
		if sizes.Types[i].Type == typeName {
			return &sizes.Types[i]
		}
	}
	return nil
}

func (s *ScanTestSuite) TestAttribution() {
	sizes, err := Scan(s.value)
	require.NoError(s.T(), err)

	s.Assert().Equal(Of(s.value), sizes.Total, "attribution never changes the figure")
	s.Assert().False(sizes.Truncated)

	buf := s.row(sizes, "[]uint8")
	require.NotNil(s.T(), buf)
	s.Assert().Equal(uintptr(256), buf.Bytes)
	s.Assert().Equal(1, buf.Count)

	name := s.row(sizes, "string")
	require.NotNil(s.T(), name)
	s.Assert().Equal(uintptr(100), name.Bytes)

	block := s.row(sizes, "deepsize.mockScanned")
	require.NotNil(s.T(), block)
	s.Assert().Equal(unsafe.Sizeof(*s.value), block.Bytes)

	s.Assert().Equal([]string{"chan int"}, sizes.Opaque)
}

func (s *ScanTestSuite) TestRowsOrderedHeaviestFirst() {
	sizes, err := Scan(s.value)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), sizes.Types)
	for i := 1; i < len(sizes.Types); i++ {
		s.Assert().GreaterOrEqual(sizes.Types[i-1].Bytes, sizes.Types[i].Bytes)
	}
}

func (s *ScanTestSuite) TestErrors() {
	s.T().Run("NilRoot", func(t *testing.T) {
		sizes, err := Scan(nil)
		assert.ErrorIs(t, err, ErrNilRoot)
		assert.Nil(t, sizes)
	})

	s.T().Run("UsedContext", func(t *testing.T) {
		ctx := NewContext()
		ctx.Of(s.value)
		_, err := ctx.Scan(s.value)
		assert.ErrorIs(t, err, ErrContextUsed)
	})

	s.T().Run("SecondScan", func(t *testing.T) {
		ctx := NewContext()
		_, err := ctx.Scan(s.value)
		require.NoError(t, err)
		_, err = ctx.Scan(s.value)
		assert.ErrorIs(t, err, ErrContextUsed)
	})
}

func (s *ScanTestSuite) TestTruncationSurfaces() {
	sizes, err := NewContext().WithMaxDepth(4).Scan(buildChain(32))
	require.NoError(s.T(), err)
	s.Assert().True(sizes.Truncated)
	s.Assert().Contains(sizes.String(), "(truncated)")
}

func (s *ScanTestSuite) TestString() {
	sizes, err := Scan(s.value)
	require.NoError(s.T(), err)

	out := sizes.String()
	s.Assert().Contains(out, "total")
	s.Assert().Contains(out, "[]uint8")
	s.Assert().Contains(out, "opaque: chan int")
	s.Assert().NotContains(out, "(truncated)")
}

func TestScan(t *testing.T) {
	suite.Run(t, new(ScanTestSuite))
}

// --- Standalone Tests ---

func TestHuman(t *testing.T) {
	assert.Equal(t, "8 B", Human(uint64(0)))

	big := make([]byte, 0, 4096)
	assert.Equal(t, "4.0 KiB", Human(big), "binary prefixes, header included")
}
