package savings

import (
	"github.com/famledger/famspend/internal/model"
)

// Ranking places one goal among the active goals of its family.
type Ranking struct {
	GoalID        string  `json:"goal_id"`
	Percentage    float64 `json:"percentage"`
	Rank          int     `json:"rank"` // 1 = best
	Total         int     `json:"total"`
	Percentile    float64 `json:"percentile"`
	FamilyAverage float64 `json:"family_average"`
	VsAverage     float64 `json:"vs_average"`
	BestGoalID    string  `json:"best_goal_id"`
	Best          float64 `json:"best"`
	VsBest        float64 `json:"vs_best"`
}

// CompareGoals ranks goal by percentage completed against the active goals
// of the same family. Equal percentages share the better rank. The goal
// itself always takes part, whatever its status.
func CompareGoals(goal model.SavingsGoal, goals []model.SavingsGoal) Ranking {
	own := percentage(goal)
	peers := []model.SavingsGoal{goal}
	for _, g := range goals {
		if g.ID == goal.ID || g.FamilyID != goal.FamilyID || g.Status != model.GoalActive {
			continue
		}
		peers = append(peers, g)
	}

	r := Ranking{GoalID: goal.ID, Percentage: own, Rank: 1, Total: len(peers)}
	var sum float64
	r.Best = -1
	for _, g := range peers {
		pct := percentage(g)
		sum += pct
		if pct > own {
			r.Rank++
		}
		if pct > r.Best {
			r.Best = pct
			r.BestGoalID = g.ID
		}
	}

	r.FamilyAverage = sum / float64(len(peers))
	r.VsAverage = own - r.FamilyAverage
	r.VsBest = own - r.Best
	if r.Total == 1 {
		r.Percentile = 100
	} else {
		r.Percentile = float64(r.Total-r.Rank) / float64(r.Total-1) * 100
	}
	return r
}
