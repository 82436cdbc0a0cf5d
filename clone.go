package proton

// Clone returns a deep copy of v that shares no slices with it.
func (v Value) Clone() Value {
	switch v.Type {
	case TypeList:
		out := make([]Value, len(v.List))
		for i, elem := range v.List {
			out[i] = elem.Clone()
		}
		return Value{Type: TypeList, List: out}
	case TypeObject:
		out := make([]Member, len(v.Members))
		for i, m := range v.Members {
			out[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
		return Value{Type: TypeObject, Members: out}
	default:
		return v
	}
}
