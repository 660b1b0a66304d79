package catalog

import "github.com/utafrali/FocusGate/internal/domain"

var (
	puzzleShuffleMoves = [domain.MaxDifficulty]int{10, 20, 40, 60, 80}
	puzzleTimeLimits   = [domain.MaxDifficulty]int{120, 180, 240, 300, 420}
)

func puzzleSize(d int) int {
	if d <= 3 {
		return 3
	}
	return 4
}

// solvedBoard returns 1..n*n-1 followed by the blank.
func solvedBoard(size int) []int {
	tiles := make([]int, size*size)
	for i := range len(tiles) - 1 {
		tiles[i] = i + 1
	}
	return tiles
}

func isSolved(tiles []int) bool {
	for i := range len(tiles) - 1 {
		if tiles[i] != i+1 {
			return false
		}
	}
	return tiles[len(tiles)-1] == 0
}

// puzzle scrambles a solved board with random legal slides, so every board
// it returns is solvable. A move never undoes the previous one.
func (c *Catalog) puzzle(d int) *domain.PuzzleContent {
	size := puzzleSize(d)
	tiles := solvedBoard(size)
	blank := len(tiles) - 1
	prev := -1

	moves := puzzleShuffleMoves[d-1]
	for i := 0; i < moves || isSolved(tiles); i++ {
		options := neighbours(blank, size, prev)
		next := options[c.intN(len(options))]
		tiles[blank], tiles[next] = tiles[next], tiles[blank]
		prev, blank = blank, next
	}

	return &domain.PuzzleContent{
		Size:      size,
		Tiles:     tiles,
		TimeLimit: puzzleTimeLimits[d-1],
	}
}

// neighbours lists the cells the blank can slide to, excluding skip.
func neighbours(blank, size, skip int) []int {
	row, col := blank/size, blank%size
	var out []int
	add := func(cell int) {
		if cell != skip {
			out = append(out, cell)
		}
	}
	if row > 0 {
		add(blank - size)
	}
	if row < size-1 {
		add(blank + size)
	}
	if col > 0 {
		add(blank - 1)
	}
	if col < size-1 {
		add(blank + 1)
	}
	return out
}
