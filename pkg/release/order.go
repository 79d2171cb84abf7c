package release

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDependencyCycle = errors.New("circular dependency detected")

// PublishOrder assigns every package a layer: 1 for packages without
// dependencies in the set, otherwise one more than their deepest dependency.
// Dependencies on packages outside the set are ignored.
func PublishOrder(packages []Package) (map[string]int, error) {
	known := make(map[string]Package, len(packages))
	for _, p := range packages {
		known[p.Name] = p
	}

	order := make(map[string]int)
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	var visit func(name string) (int, error)
	visit = func(name string) (int, error) {
		if inStack[name] {
			return 0, fmt.Errorf("%w at %s", ErrDependencyCycle, name)
		}
		if visited[name] {
			return order[name], nil
		}

		inStack[name] = true

		maxDepOrder := 0
		for _, dep := range known[name].DependsOn {
			if _, ok := known[dep]; !ok {
				continue
			}
			depOrder, err := visit(dep)
			if err != nil {
				return 0, err
			}
			if depOrder > maxDepOrder {
				maxDepOrder = depOrder
			}
		}

		inStack[name] = false
		visited[name] = true
		order[name] = maxDepOrder + 1

		return order[name], nil
	}

	for _, p := range packages {
		if _, err := visit(p.Name); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// Layers groups package names by PublishOrder layer, each layer sorted by name.
func Layers(order map[string]int) [][]string {
	deepest := 0
	for _, l := range order {
		if l > deepest {
			deepest = l
		}
	}
	layers := make([][]string, deepest)
	for name, l := range order {
		layers[l-1] = append(layers[l-1], name)
	}
	for _, layer := range layers {
		sort.Strings(layer)
	}
	return layers
}
