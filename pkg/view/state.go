package view

import "reflect"

// Entry is one key of a SetState call.
type Entry struct {
	Key   string
	Value any
}

// KV builds an Entry.
func KV(key string, value any) Entry {
	return Entry{Key: key, Value: value}
}

// SetState merges entries into the state and calls the Render hook once
// per changed key, in the order the keys were first supplied. A key is
// changed when it is new or its value is not deeply equal to the old one.
// Each call renders on its own; nothing is coalesced across calls.
func (v *View) SetState(entries ...Entry) {
	if v.removed {
		return
	}

	var changed []string
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		value := e.Value
		if v.hooks.TransformState != nil {
			value = v.hooks.TransformState(e.Key, value)
		}
		old, ok := v.state[e.Key]
		v.state[e.Key] = value
		if (!ok || !reflect.DeepEqual(old, value)) && !seen[e.Key] {
			seen[e.Key] = true
			changed = append(changed, e.Key)
		}
	}

	if v.hooks.Render == nil {
		return
	}
	for _, key := range changed {
		if v.removed {
			return
		}
		v.hooks.Render(v, key, v.StateMap())
	}
}

// StateMap returns a copy of the state.
func (v *View) StateMap() map[string]any {
	out := make(map[string]any, len(v.state))
	for k, val := range v.state {
		out[k] = val
	}
	return out
}

// StateValue returns the state value for key.
func (v *View) StateValue(key string) (any, bool) {
	val, ok := v.state[key]
	return val, ok
}

// Props returns a copy of the props.
func (v *View) Props() map[string]any {
	out := make(map[string]any, len(v.props))
	for k, val := range v.props {
		out[k] = val
	}
	return out
}

// Prop returns the prop value for key.
func (v *View) Prop(key string) (any, bool) {
	val, ok := v.props[key]
	return val, ok
}
