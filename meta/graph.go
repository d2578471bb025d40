package meta

import "strings"

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// orderByInheritance sorts the definitions of one source so that every
// definition comes after the one it inherits from, when both are part of
// the same source. Definitions inheriting from tags outside the source keep
// their relative order. Inheriting from oneself refers to the entry loaded
// by an earlier source and is not an edge.
func orderByInheritance(source string, defs []Definition) ([]Definition, error) {
	index := make(map[string]int, len(defs))
	for i, def := range defs {
		index[strings.ToLower(def.TagName)] = i
	}

	states := make([]visitState, len(defs))
	order := make([]Definition, 0, len(defs))
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		tag := strings.ToLower(defs[i].TagName)
		switch states[i] {
		case stateVisiting:
			return &CycleError{Source: source, Tags: cycleFrom(path, tag)}
		case stateDone:
			return nil
		}

		states[i] = stateVisiting
		path = append(path, tag)
		if target := inheritOf(defs[i]); target != "" && target != tag {
			if j, ok := index[target]; ok {
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		states[i] = stateDone
		order = append(order, defs[i])
		return nil
	}

	for i := range defs {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cycleFrom returns the tail of path starting at tag, closed with tag.
func cycleFrom(path []string, tag string) []string {
	for i, p := range path {
		if p == tag {
			cycle := append([]string{}, path[i:]...)
			return append(cycle, tag)
		}
	}
	return []string{tag, tag}
}
