package unistore

// Reducer computes the next state from the current state and an action.
// It must be pure: no I/O, no blocking, no mutation of its input.
type Reducer[S any] func(state S, action any) S

// NoopReducer returns the identity reducer.
func NoopReducer[S any]() Reducer[S] {
	return func(state S, _ any) S { return state }
}

// CombineReducers folds an action through reducers left to right, each
// consuming the state produced by the previous one. Nil reducers are skipped.
func CombineReducers[S any](reducers ...Reducer[S]) Reducer[S] {
	chain := make([]Reducer[S], 0, len(reducers))
	for _, r := range reducers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	switch len(chain) {
	case 0:
		return NoopReducer[S]()
	case 1:
		return chain[0]
	}
	return func(state S, action any) S {
		for _, r := range chain {
			state = r(state, action)
		}
		return state
	}
}

// internalReducer works on envelopes so reserved variants stay invisible to
// host reducers.
type internalReducer[S any] func(state S, act envelope[S]) S

// lift runs r for host actions and is the identity for reserved ones.
func lift[S any](r Reducer[S]) internalReducer[S] {
	return func(state S, act envelope[S]) S {
		if act.kind != hostAction {
			return state
		}
		return r(state, act.value)
	}
}

// setStateReducer honors the set-state action over any upstream result.
func setStateReducer[S any](state S, act envelope[S]) S {
	if act.kind == setStateAction {
		return act.state
	}
	return state
}

// compose appends the set-state reducer after the host reducer.
func compose[S any](host Reducer[S]) internalReducer[S] {
	if host == nil {
		host = NoopReducer[S]()
	}
	lifted := lift(host)
	return func(state S, act envelope[S]) S {
		return setStateReducer(lifted(state, act), act)
	}
}
