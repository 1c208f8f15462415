package stats

import (
	"math"
	"sort"
	"time"

	"golang.org/x/exp/rand"

	"github.com/steamboard/steamboard/profile"
)

// The spending figures are fabricated estimates, not store receipts.
// Prices are drawn from coarse tiers weighted towards the indie bracket
// and the whole thing is recomputed from scratch on every call.

const (
	freeGameShare = 0.15

	aaaTierWeight   = 0.3
	indieTierWeight = 0.8

	topExpensiveCount = 5
	yearlyWindow      = 5
)

// Rand is the random source used for synthetic pricing. *rand.Rand from
// golang.org/x/exp/rand satisfies it; tests supply a deterministic stub.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type Estimator struct {
	rng Rand
	now func() time.Time
}

func NewEstimator(rng Rand) *Estimator {
	return &Estimator{
		rng: rng,
		now: time.Now,
	}
}

// NewDefaultEstimator wires a time-seeded source so production output
// varies between calls.
func NewDefaultEstimator() *Estimator {
	return NewEstimator(rand.New(rand.NewSource(uint64(time.Now().UnixNano()))))
}

type PricedGame struct {
	Name            string `json:"name"`
	Price           int    `json:"price"`
	PlaytimeMinutes int    `json:"playtime_minutes"`
}

type YearSpend struct {
	Year   int `json:"year"`
	Amount int `json:"amount"`
}

type CategoryBucket struct {
	Name  string `json:"name"`
	Games int    `json:"games"`
	Spend int    `json:"spend"`
}

type Estimate struct {
	TotalSpent         int              `json:"total_spent"`
	EstimatedFreeGames int              `json:"estimated_free_games"`
	EstimatedPaidGames int              `json:"estimated_paid_games"`
	AveragePerGame     float64          `json:"average_per_game"`
	MostExpensive      PricedGame       `json:"most_expensive_game"`
	TopExpensive       []PricedGame     `json:"top_expensive_games"`
	YearlyBreakdown    []YearSpend      `json:"yearly_breakdown"`
	Categories         []CategoryBucket `json:"category_breakdown"`
}

// Estimate fabricates a plausible spending picture for the given snapshot.
// The per-game tier draws and the category breakdown are computed
// independently so their numbers will not agree with each other; the
// yearly weights deliberately don't sum to 1 either. Both are display
// estimates, not a partition of the total.
func (e *Estimator) Estimate(snap profile.Snapshot) Estimate {
	totalGames := snap.OwnedGames.GameCount
	if totalGames < 0 {
		totalGames = 0
	}

	estimatedFree := int(math.Floor(float64(totalGames) * freeGameShare))
	estimatedPaid := totalGames - estimatedFree

	priced := make([]PricedGame, 0, len(snap.OwnedGames.Games))
	totalSpent := 0
	mostExpensiveIdx := -1
	for _, g := range snap.OwnedGames.Games {
		price := e.priceFor(g)
		totalSpent += price
		priced = append(priced, PricedGame{
			Name:            g.Name,
			Price:           price,
			PlaytimeMinutes: g.PlaytimeMinutes,
		})
		// strict comparison so ties resolve to the first game encountered
		if mostExpensiveIdx == -1 || price > priced[mostExpensiveIdx].Price {
			mostExpensiveIdx = len(priced) - 1
		}
	}

	averagePerGame := 0.0
	if estimatedPaid > 0 {
		averagePerGame = float64(totalSpent) / float64(estimatedPaid)
	}

	mostExpensive := PricedGame{}
	if mostExpensiveIdx >= 0 {
		mostExpensive = priced[mostExpensiveIdx]
	}

	topExpensive := make([]PricedGame, len(priced))
	copy(topExpensive, priced)
	sort.SliceStable(topExpensive, func(i, j int) bool {
		return topExpensive[i].Price > topExpensive[j].Price
	})
	if len(topExpensive) > topExpensiveCount {
		topExpensive = topExpensive[:topExpensiveCount]
	}

	return Estimate{
		TotalSpent:         totalSpent,
		EstimatedFreeGames: estimatedFree,
		EstimatedPaidGames: estimatedPaid,
		AveragePerGame:     averagePerGame,
		MostExpensive:      mostExpensive,
		TopExpensive:       topExpensive,
		YearlyBreakdown:    e.yearlyBreakdown(snap.PlayerSummary.TimeCreated, totalSpent),
		Categories:         categoryBreakdown(totalGames, totalSpent),
	}
}

func (e *Estimator) priceFor(g profile.GameRecord) int {
	if g.PlaytimeMinutes == 0 && e.rng.Float64() < freeGameShare {
		return 0
	}
	r := e.rng.Float64()
	if r < aaaTierWeight {
		return 40 + e.rng.Intn(30) // AAA tier
	}
	if r < indieTierWeight {
		return 5 + e.rng.Intn(25) // indie tier
	}
	return 1 + e.rng.Intn(9) // budget tier
}

// yearlyBreakdown spreads the total over a trailing window with weights
// front-loaded towards the current year: 30%, 25%, 20%, 15%, 10%.
func (e *Estimator) yearlyBreakdown(accountCreatedAt int64, totalSpent int) []YearSpend {
	currentYear := e.now().UTC().Year()
	accountYears := currentYear - time.Unix(accountCreatedAt, 0).UTC().Year() + 1
	if accountYears > yearlyWindow {
		accountYears = yearlyWindow
	}

	years := []YearSpend{}
	for i := 0; i < accountYears; i++ {
		weight := 0.3 - float64(i)*0.05
		amount := int(math.Floor(float64(totalSpent) * weight))
		if amount < 0 {
			amount = 0
		}
		years = append(years, YearSpend{Year: currentYear - i, Amount: amount})
	}
	return years
}

// categoryBreakdown is a fixed split, floored independently per bucket.
// It is not derived from the per-game tier draws.
func categoryBreakdown(totalGames, totalSpent int) []CategoryBucket {
	return []CategoryBucket{
		{Name: "AAA Titles", Games: totalGames * 30 / 100, Spend: totalSpent * 55 / 100},
		{Name: "Indie Games", Games: totalGames * 50 / 100, Spend: totalSpent * 30 / 100},
		{Name: "Budget Games", Games: totalGames * 20 / 100, Spend: totalSpent * 15 / 100},
	}
}
