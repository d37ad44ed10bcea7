package performance

import "math"

// Sub-rating scales.
const (
	battingRunsCap       = 100.0
	battingStrikeRateCap = 150.0
	bowlingWicketsCap    = 5.0
	bowlingEconomyCap    = 10.0
	fieldingCreditsCap   = 3.0
)

// BattingRating weighs run volume against strike rate.
func BattingRating(b Batting) float64 {
	v := 0.6*math.Min(float64(b.Runs)/battingRunsCap, 1) +
		0.4*math.Min(b.StrikeRate()/battingStrikeRateCap, 1)
	return clamp(v * 100)
}

// BowlingRating weighs wickets against economy. A bowler without a legal
// ball gets no economy credit.
func BowlingRating(b Bowling) float64 {
	econ := 0.0
	if e := b.Economy(); !math.IsInf(e, 1) {
		econ = math.Max(0, 1-e/bowlingEconomyCap)
	}
	v := 0.6*math.Min(float64(b.Wickets)/bowlingWicketsCap, 1) + 0.4*econ
	return clamp(v * 100)
}

// FieldingRating scales dismissal credits.
func FieldingRating(f Fielding) float64 {
	return clamp(100 * math.Min(float64(f.Credits())/fieldingCreditsCap, 1))
}

// Rate derives all sub-ratings. Overall is the mean over the disciplines
// the player took part in, so a player who did not bowl is not dragged down
// by a zero bowling rating.
func Rate(p Player) Ratings {
	r := Ratings{
		Batting:  BattingRating(p.Batting),
		Bowling:  BowlingRating(p.Bowling),
		Fielding: FieldingRating(p.Fielding),
	}
	var parts []float64
	if p.Batting.Balls > 0 {
		parts = append(parts, r.Batting)
	}
	if p.Bowling.Deliveries > 0 {
		parts = append(parts, r.Bowling)
	}
	if p.Fielding.Credits() > 0 {
		parts = append(parts, r.Fielding)
	}
	r.Overall = Overall(parts...)
	return r
}

// Overall is the clamped arithmetic mean of the given sub-ratings, 0 for none.
func Overall(parts ...float64) float64 {
	if len(parts) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range parts {
		sum += clamp(v)
	}
	return clamp(sum / float64(len(parts)))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
