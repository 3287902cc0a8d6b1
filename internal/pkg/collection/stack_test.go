package collection

import (
	"testing"
)

func TestStack_PushPop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []string
		popCount int
		want     []string
		wantLen  int
	}{
		{
			name:     "pop in LIFO order",
			values:   []string{"first", "second", "third"},
			popCount: 3,
			want:     []string{"third", "second", "first"},
			wantLen:  0,
		},
		{
			name:     "pop partial elements",
			values:   []string{"a", "b", "c"},
			popCount: 1,
			want:     []string{"c"},
			wantLen:  2,
		},
		{
			name:     "pop from empty stack",
			values:   []string{},
			popCount: 2,
			want:     []string{"", ""},
			wantLen:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStack[string]()
			for _, v := range tt.values {
				s.Push(v)
			}

			for i := 0; i < tt.popCount; i++ {
				if got := s.Pop(); got != tt.want[i] {
					t.Errorf("Pop() result[%d] = %v, want %v", i, got, tt.want[i])
				}
			}

			if got := s.Len(); got != tt.wantLen {
				t.Errorf("Stack.Len() = %v, want %v", got, tt.wantLen)
			}
		})
	}
}

func TestStack_Peek(t *testing.T) {
	t.Parallel()

	s := NewStack[int]()
	if got := s.Peek(); got != 0 {
		t.Errorf("Peek() on empty stack = %d, want 0", got)
	}

	s.Push(1)
	s.Push(2)
	if got := s.Peek(); got != 2 {
		t.Errorf("Peek() = %d, want 2", got)
	}
	if s.Len() != 2 {
		t.Errorf("Peek modified stack length: got %d, want 2", s.Len())
	}
}
