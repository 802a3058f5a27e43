package scripting

// Statistics tracks what the bot did over one run.
type Statistics struct {
	Steps          int     `json:"steps"`
	Moves          int     `json:"moves"`
	Collects       int     `json:"collects"`
	EmptyCollects  int     `json:"emptyCollects"`
	Deposits       int     `json:"deposits"`
	Balance        int     `json:"balance"`
	StartBalance   int     `json:"startBalance"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Profit returns the net token gain over the run.
func (s *Statistics) Profit() int {
	return s.Balance - s.StartBalance
}
