package schema

// Order arranges models so that every model comes after the models its
// relation fields point to, whenever the relation graph allows it.
//
// Each pass emits every model whose relation targets have all been emitted
// by earlier passes; self-relations and targets that are not declared
// models are ignored. A pass that emits nothing means a cycle, and the
// first remaining model in declaration order is forced out. The loop runs
// at most 2*len(models) passes; anything left after that is appended in
// declaration order. The result is a new slice holding each input model
// exactly once.
func Order(models []Model) []Model {
	ordered := make([]Model, 0, len(models))
	remaining := make([]Model, len(models))
	copy(remaining, models)

	maxPasses := len(models) * 2
	for pass := 0; len(remaining) > 0 && pass < maxPasses; pass++ {
		pending := make(map[string]bool, len(remaining))
		for _, m := range remaining {
			pending[m.Name] = true
		}

		var next []Model
		emitted := 0
		for _, m := range remaining {
			if dependsOnPending(m, pending) {
				next = append(next, m)
				continue
			}
			ordered = append(ordered, m)
			emitted++
		}
		if emitted == 0 {
			ordered = append(ordered, next[0])
			next = next[1:]
		}
		remaining = next
	}
	return append(ordered, remaining...)
}

func dependsOnPending(m Model, pending map[string]bool) bool {
	for _, f := range m.Relations() {
		target := f.BaseType()
		if target != m.Name && pending[target] {
			return true
		}
	}
	return false
}
