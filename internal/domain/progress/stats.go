package progress

import (
	"math"

	"github.com/google/uuid"
)

// Tally counts leaves per status.
type Tally struct {
	Total int `json:"total"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
	Red   int `json:"red"`
	Black int `json:"black"`
}

// Percent is the rounded share of mastered leaves, 0 for an empty board.
func (t Tally) Percent() int {
	if t.Total == 0 {
		return 0
	}
	return int(math.Round(float64(t.Green) / float64(t.Total) * 100))
}

// TallyLeaves counts the effective status of every leaf id on board.
func TallyLeaves(b *Board, leafIDs []uuid.UUID) Tally {
	t := Tally{Total: len(leafIDs)}
	for _, id := range leafIDs {
		switch b.StatusOf(id) {
		case StatusGreen:
			t.Green++
		case StatusBlue:
			t.Blue++
		case StatusRed:
			t.Red++
		default:
			t.Black++
		}
	}
	return t
}
