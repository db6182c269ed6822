package unistore

import "testing"

type incBy int

func double(state int, _ any) int { return state * 2 }

func increment(state int, action any) int {
	if n, ok := action.(incBy); ok {
		return state + int(n)
	}
	return state
}

func TestCombineReducers_Order(t *testing.T) {
	tests := []struct {
		name     string
		reducers []Reducer[int]
		want     int
	}{
		{"double then increment", []Reducer[int]{double, increment}, 11},
		{"increment then double", []Reducer[int]{increment, double}, 12},
		{"nil skipped", []Reducer[int]{nil, increment, nil}, 6},
		{"empty is identity", nil, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CombineReducers(tt.reducers...)
			if got := r(5, incBy(1)); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNoopReducer(t *testing.T) {
	r := NoopReducer[string]()
	if got := r("same", incBy(3)); got != "same" {
		t.Errorf("NoopReducer changed state to %q", got)
	}
}

func TestCompose_SetStateWinsLast(t *testing.T) {
	r := compose(Reducer[int](func(state int, action any) int { return -1 }))

	if got := r(5, setStateEnvelope(42)); got != 42 {
		t.Errorf("set-state: got %d, want 42", got)
	}
	if got := r(5, hostEnvelope[int](incBy(1))); got != -1 {
		t.Errorf("host action: got %d, want -1", got)
	}
	// Host reducers never see reserved variants.
	if got := r(5, envelope[int]{kind: seedAction}); got != 5 {
		t.Errorf("seed: got %d, want 5", got)
	}
}

func TestCompose_SetStateIdempotent(t *testing.T) {
	r := compose(Reducer[int](func(state int, action any) int { return state + 100 }))
	state := 0
	for i := 0; i < 2; i++ {
		state = r(state, setStateEnvelope(7))
		if state != 7 {
			t.Fatalf("after set-state #%d: got %d, want 7", i+1, state)
		}
	}
}

func TestCompose_NilHostReducer(t *testing.T) {
	r := compose[int](nil)
	if got := r(3, hostEnvelope[int]("x")); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

type named struct{}

func (named) Kind() string { return "custom/named" }

type plain struct{}

func TestKindOf(t *testing.T) {
	tests := []struct {
		action any
		want   string
	}{
		{named{}, "custom/named"},
		{plain{}, "plain"},
		{&plain{}, "plain"},
		{incBy(1), "incBy"},
		{3, "int"},
		{nil, "<nil>"},
		{[]int{1}, "[]int"},
		{StateReplaced[int]{state: 1}, "StateReplaced"},
	}
	for _, tt := range tests {
		if got := KindOf(tt.action); got != tt.want {
			t.Errorf("KindOf(%#v) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestIsReserved(t *testing.T) {
	if !isReserved[int](StateReplaced[int]{}) {
		t.Error("StateReplaced[int] should be reserved")
	}
	if !isReserved[int](&StateReplaced[int]{}) {
		t.Error("*StateReplaced[int] should be reserved")
	}
	if isReserved[int](StateReplaced[string]{}) {
		t.Error("StateReplaced of another state type is an ordinary action")
	}
	if isReserved[int](1) {
		t.Error("int should not be reserved")
	}
}
