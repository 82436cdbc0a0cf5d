package merge

import (
	"fmt"

	proton "github.com/starfederation/proton-go"
)

// ApplyDocument applies JSON Merge Patch semantics to two ProtoN messages
// and returns the encoded result. If the patch is not an object, the patch
// replaces the target.
func ApplyDocument(target, patch []byte) ([]byte, error) {
	patchRoot, err := proton.Decode(patch)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if patchRoot.Type != proton.TypeObject {
		return patch, nil
	}
	targetRoot, err := proton.Decode(target)
	if err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}
	return proton.Encode(Apply(targetRoot, patchRoot))
}

// Apply merges patch into target (RFC 7386). Null patch members delete the
// target member, object members merge recursively and anything else
// replaces. Neither argument is modified.
func Apply(target, patch proton.Value) proton.Value {
	if patch.Type != proton.TypeObject {
		return patch.Clone()
	}
	var out []proton.Member
	if target.Type == proton.TypeObject {
		out = make([]proton.Member, len(target.Members), len(target.Members)+len(patch.Members))
		copy(out, target.Members)
	}
	for _, entry := range patch.Members {
		idx := memberIndex(out, entry.Key)
		switch entry.Value.Type {
		case proton.TypeNull:
			if idx >= 0 {
				out = append(out[:idx], out[idx+1:]...)
			}
		case proton.TypeObject:
			var base proton.Value
			if idx >= 0 {
				base = out[idx].Value
			}
			merged := Apply(base, entry.Value)
			if idx >= 0 {
				out[idx].Value = merged
			} else {
				out = append(out, proton.Pair(entry.Key, merged))
			}
		default:
			val := entry.Value.Clone()
			if idx >= 0 {
				out[idx].Value = val
			} else {
				out = append(out, proton.Pair(entry.Key, val))
			}
		}
	}
	return proton.Object(out...)
}

func memberIndex(members []proton.Member, key string) int {
	for i, m := range members {
		if m.Key == key {
			return i
		}
	}
	return -1
}
