package domain

// Ranking is one player's placement in a round
type Ranking struct {
	PlayerID string `json:"playerId"`
	Votes    int    `json:"votes"`
	Points   int    `json:"points"`
	Rank     int    `json:"rank"` // 1-based, ties share a rank
}

// RoundResult is the stored outcome of a round
type RoundResult struct {
	RoundNumber int       `json:"roundNumber"`
	Rankings    []Ranking `json:"rankings"`
}

// RankOf returns the player's rank, or 0 if they were not ranked
func (r RoundResult) RankOf(playerID string) int {
	for _, rk := range r.Rankings {
		if rk.PlayerID == playerID {
			return rk.Rank
		}
	}
	return 0
}

// Last returns the lowest-ranked player id, if any
func (r RoundResult) Last() (string, bool) {
	if len(r.Rankings) == 0 {
		return "", false
	}
	return r.Rankings[len(r.Rankings)-1].PlayerID, true
}

// ResultFor returns the stored result for the given round
func (r *Room) ResultFor(round int) (RoundResult, bool) {
	for _, res := range r.RoundResults {
		if res.RoundNumber == round {
			return res, true
		}
	}
	return RoundResult{}, false
}

// Leaders returns the ids holding the highest cumulative score
func (r *Room) Leaders() []string {
	best := 0
	leaders := make([]string, 0)
	for _, p := range r.Players {
		score := r.Scores[p.ID]
		switch {
		case len(leaders) == 0 || score > best:
			best = score
			leaders = []string{p.ID}
		case score == best:
			leaders = append(leaders, p.ID)
		}
	}
	return leaders
}
