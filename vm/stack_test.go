package vm

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStack(t *testing.T) {
	type args struct {
		opts []StackOpt
	}
	tests := []struct {
		name string
		args args
		want *Stack
	}{
		{
			name: "default",
			want: &Stack{
				depth: 1024,
				data:  make([]Value, 0, 1024),
			},
		},
		{
			name: "depth opt",
			args: args{
				[]StackOpt{MaxStack(2)},
			},
			want: &Stack{
				depth: 2,
				data:  make([]Value, 0, 2),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewStack(tt.args.opts...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewStack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStack_Pop(t *testing.T) {
	tests := []struct {
		name    string
		data    []Value
		want    Value
		wantErr error
	}{
		{
			name:    "empty",
			wantErr: ErrStackUnderflow,
		},
		{
			name: "single",
			data: []Value{Int(1)},
			want: Int(1),
		},
		{
			name: "top of many",
			data: []Value{Int(2), Bool(true), CodeLoc(9)},
			want: CodeLoc(9),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Stack{
				data:  tt.data,
				depth: DefaultMaxStack,
			}
			got, err := s.Pop()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.data)-1, s.Len())
		})
	}
}

func TestStackFunctional(t *testing.T) {
	max := 3
	vals := []Value{Int(0), Int(2), Int(4)}
	s := NewStack(MaxStack(max))
	for i := 0; i < max; i += 1 {
		assert.NoError(t, s.Push(vals[i]))
		assert.Equal(t, i+1, s.Len())
	}

	// overflow
	assert.ErrorIs(t, s.Push(Unit()), ErrStackOverflow)

	top, err := s.Peek()
	assert.NoError(t, err)
	assert.Equal(t, Int(4), top)

	// absolute reads and writes
	got, err := s.Read(0)
	assert.NoError(t, err)
	assert.Equal(t, Int(0), got)
	assert.NoError(t, s.Write(1, Bool(false)))
	_, err = s.Read(3)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
	assert.ErrorIs(t, s.Write(-1, Unit()), ErrIndexOutOfBounds)

	// pop all
	want := []Value{Int(4), Bool(false), Int(0)}
	for i := 0; i < max; i += 1 {
		got, err := s.Pop()
		assert.NoError(t, err)
		assert.Equal(t, want[i], got)
	}

	// underflow
	_, err = s.Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)

	// reuse
	assert.NoError(t, s.Push(HeapAddr(3)))
	assert.NoError(t, s.Push(Undefined()))
	assert.Equal(t, []Value{HeapAddr(3), Undefined()}, s.Values())

	s.Truncate(1)
	assert.Equal(t, []Value{HeapAddr(3)}, s.Values())
	s.Truncate(5)
	assert.Equal(t, 1, s.Len())
}
