// Package optimizer searches the parameter grid of a strategy for the
// combination that maximizes an objective.
package optimizer

import "golang-backtest/internal/strategy"

// Expand returns the cartesian product of grid. Earlier dimensions vary
// slowest and an empty dimension yields an empty search space.
func Expand(grid strategy.Grid) []strategy.Parameters {
	if len(grid) == 0 {
		return nil
	}
	space := make([]strategy.Parameters, 0, len(grid[0]))
	for _, v := range grid[0] {
		space = append(space, strategy.Parameters{v})
	}
	for _, values := range grid[1:] {
		next := make([]strategy.Parameters, 0, len(space)*len(values))
		for _, partial := range space {
			for _, v := range values {
				combination := make(strategy.Parameters, len(partial), len(partial)+1)
				copy(combination, partial)
				next = append(next, append(combination, v))
			}
		}
		space = next
	}
	return space
}
