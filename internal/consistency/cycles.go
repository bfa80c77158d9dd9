package consistency

import (
	"github.com/kingrea/dcs/internal/registry"
)

// FindCycles walks depends_on edges depth-first from every record in table
// order. Each entry point owns its visited set and each branch its own copy
// of the path, so a cycle is reported once per entry point that reaches it.
// Every reported path starts at its entry point and ends at the repeated id.
func FindCycles(reg *registry.Registry) [][]string {
	var cycles [][]string
	for _, id := range reg.IDs() {
		visited := map[string]bool{}
		var visit func(id string, path []string)
		visit = func(id string, path []string) {
			for _, seen := range path {
				if seen == id {
					cycle := append(append([]string(nil), path...), id)
					cycles = append(cycles, cycle)
					return
				}
			}
			if visited[id] {
				return
			}
			visited[id] = true
			next := append(append([]string(nil), path...), id)
			rec, _ := reg.Lookup(id)
			for _, dep := range rec.DependsOn {
				visit(dep, next)
			}
		}
		visit(id, nil)
	}
	return cycles
}
