package catalog

import "github.com/utafrali/FocusGate/internal/domain"

var memorySymbols = []string{
	"🍎", "🚀", "🎵", "🌙", "⚽", "🔑", "🌵", "🐙",
	"🎲", "💡", "🧩", "🦊", "🍩", "⛵", "🌈",
}

var memoryGrids = [domain.MaxDifficulty][2]int{
	{2, 3},
	{3, 4},
	{4, 4},
	{4, 5},
	{5, 6},
}

func (c *Catalog) memory(d int) *domain.MemoryContent {
	rows, cols := memoryGrids[d-1][0], memoryGrids[d-1][1]
	pairs := rows * cols / 2

	symbols := append([]string(nil), memorySymbols...)
	c.shuffle(len(symbols), func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })

	cards := make([]string, 0, pairs*2)
	for _, s := range symbols[:pairs] {
		cards = append(cards, s, s)
	}
	c.shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	return &domain.MemoryContent{
		Rows:      rows,
		Cols:      cols,
		Cards:     cards,
		TimeLimit: 60 + 30*d,
	}
}
