package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testList(t *testing.T) *List[uint32] {
	l := NewList[uint32]()
	for i := uint32(0); i < 6; i += 1 {
		l.Append(i * 2)
	}
	assert.Equal(t, 6, l.Len())
	return l
}

func TestList_Get(t *testing.T) {
	l := testList(t)

	for i := 0; i < l.Len(); i += 1 {
		got, err := l.Get(i)
		assert.NoError(t, err)
		assert.Equal(t, uint32(i*2), got)
	}
	_, err := l.Get(l.Len())
	assert.Error(t, err)
	_, err = l.Get(-1)
	assert.Error(t, err)
}

func TestList_Clear(t *testing.T) {
	l := testList(t)
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Slice())
}

func TestList_AppendUnique(t *testing.T) {
	l := NewList[string]()
	assert.True(t, l.AppendUnique("a"))
	assert.True(t, l.AppendUnique("b"))
	assert.False(t, l.AppendUnique("a"))
	assert.Equal(t, []string{"a", "b"}, l.Slice())
}

func TestList_Delete(t *testing.T) {
	l := testList(t)

	// middle
	assert.True(t, l.Delete(6))
	assert.Equal(t, []uint32{0, 2, 4, 8, 10}, l.Slice())

	// last
	assert.True(t, l.Delete(10))
	assert.Equal(t, []uint32{0, 2, 4, 8}, l.Slice())

	// first
	assert.True(t, l.Delete(0))
	assert.Equal(t, []uint32{2, 4, 8}, l.Slice())

	assert.False(t, l.Delete(42))
	assert.Equal(t, 3, l.Len())
	assert.False(t, l.Contains(0))
	assert.Equal(t, 1, l.IndexOf(4))
}
