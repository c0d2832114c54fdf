package ordering

import (
	"sort"
	"time"

	"voko-backend/internal/config"
	"voko-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolveCurrentRound picks the round a member interaction applies to.
// Precedence, first match wins:
//  1. a round that is open for interaction (open <= now < collect), the
//     earliest one, ties broken by lowest id;
//  2. the soonest upcoming round;
//  3. the most recently finished round;
//  4. nil when no rounds exist at all: a valid state, not an error.
//
// The fallback exists so the site can always show something meaningful.
// Callers must still check IsOpen before allowing any mutation: the
// resolved round may well be closed.
func ResolveCurrentRound(rounds []models.OrderRound, now time.Time) *models.OrderRound {
	var open, future, past []models.OrderRound
	for _, r := range rounds {
		switch {
		case !now.Before(r.OpenForOrders) && now.Before(r.CollectDatetime):
			open = append(open, r)
		case !r.OpenForOrders.Before(now):
			future = append(future, r)
		case r.CollectDatetime.Before(now):
			past = append(past, r)
		}
	}

	if len(open) > 0 {
		sort.Slice(open, func(i, j int) bool {
			if !open[i].OpenForOrders.Equal(open[j].OpenForOrders) {
				return open[i].OpenForOrders.Before(open[j].OpenForOrders)
			}
			return open[i].ID < open[j].ID
		})
		return &open[0]
	}

	if len(future) > 0 {
		sort.Slice(future, func(i, j int) bool {
			if !future[i].OpenForOrders.Equal(future[j].OpenForOrders) {
				return future[i].OpenForOrders.Before(future[j].OpenForOrders)
			}
			return future[i].ID < future[j].ID
		})
		return &future[0]
	}

	if len(past) > 0 {
		sort.Slice(past, func(i, j int) bool {
			if !past[i].OpenForOrders.Equal(past[j].OpenForOrders) {
				return past[i].OpenForOrders.After(past[j].OpenForOrders)
			}
			return past[i].ID > past[j].ID
		})
		return &past[0]
	}

	return nil
}

// CurrentOrderRound resolves against the database. The round table stays
// small (one row per two weeks), loading it whole is fine.
func CurrentOrderRound(db *gorm.DB, now time.Time) (*models.OrderRound, error) {
	var rounds []models.OrderRound
	if err := db.Find(&rounds).Error; err != nil {
		return nil, err
	}
	return ResolveCurrentRound(rounds, now), nil
}

// MarkOrderPlaced flags a round as "supplier lists sent". The flag is a
// one-shot: the check and the set run in one transaction so the
// low-frequency notification job cannot fire twice. Returns whether this
// call was the one that flipped the flag.
func MarkOrderPlaced(db *gorm.DB, roundID uint, now time.Time) (bool, error) {
	fired := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var r models.OrderRound
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&r, roundID).Error; err != nil {
			return err
		}
		if r.OrderPlaced {
			// duplicate trigger, silent no-op
			return nil
		}
		if now.Before(r.ClosedForOrders) {
			return ErrRoundStillOpen
		}
		fired = true
		return tx.Model(&r).Update("order_placed", true).Error
	})
	return fired, err
}

// NextRoundDates derives the milestones of the round following lastOpen
// from the scheduling config. With a zero lastOpen the schedule starts
// today at the configured opening hour.
func NextRoundDates(cfg *config.Config, lastOpen, now time.Time) (open, closed, collect time.Time) {
	if lastOpen.IsZero() {
		open = time.Date(now.Year(), now.Month(), now.Day(),
			cfg.RoundOpenHour, 0, 0, 0, now.Location())
	} else {
		open = lastOpen.AddDate(0, 0, 7*cfg.RoundIntervalWeeks)
	}
	closed = open.AddDate(0, 0, cfg.RoundOrderOpenDays)
	c := open.AddDate(0, 0, cfg.RoundCollectDays)
	collect = time.Date(c.Year(), c.Month(), c.Day(),
		cfg.RoundCollectHour, 0, 0, 0, c.Location())
	return open, closed, collect
}

// EnsureNextRound creates the upcoming round if none is scheduled yet. The
// periodic job calls this every half hour; it keeps creating rounds until
// one opens in the future, so the schedule catches up after downtime.
// Scheduling knobs come from the passed-in config, never from hidden
// globals.
func EnsureNextRound(db *gorm.DB, cfg *config.Config, now time.Time) ([]models.OrderRound, error) {
	var created []models.OrderRound
	err := db.Transaction(func(tx *gorm.DB) error {
		var last models.OrderRound
		res := tx.Order("open_for_orders desc").Limit(1).Find(&last)
		if res.Error != nil {
			return res.Error
		}

		lastOpen := last.OpenForOrders // zero when the table is empty
		for {
			if lastOpen.After(now) {
				return nil // an upcoming round exists
			}
			open, closed, collect := NextRoundDates(cfg, lastOpen, now)
			r := models.OrderRound{
				OpenForOrders:    open,
				ClosedForOrders:  closed,
				CollectDatetime:  collect,
				MarkupPercentage: cfg.MarkupPercentage,
				TransactionCosts: cfg.TransactionCosts,
			}
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			created = append(created, r)
			lastOpen = open
		}
	})
	return created, err
}
