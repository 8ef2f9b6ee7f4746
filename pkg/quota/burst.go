package quota

import "time"

// replenishInterval is the time required to earn one burst credit.
const replenishInterval = 10 * time.Second

// burstPool holds the replenishing credit allowance that lets
// high-priority requests bypass ordinary window ceilings.
//
// Credits only grow through time-based replenishment, never through
// caller action. The pool starts full.
type burstPool struct {
	credits       int64
	limit         int64
	lastReplenish time.Time
}

func newBurstPool(limit int64, now time.Time) burstPool {
	return burstPool{
		credits:       limit,
		limit:         limit,
		lastReplenish: now,
	}
}

// consume takes one credit if any are available.
func (p *burstPool) consume() bool {
	if p.credits <= 0 {
		return false
	}
	p.credits--
	return true
}

// replenish grants one credit per full interval elapsed since the last
// grant, capped at the pool limit.
//
// The reference timestamp advances by whole interval multiples rather
// than snapping to now, so partial elapsed time keeps counting toward
// the next credit.
func (p *burstPool) replenish(now time.Time) {
	elapsed := now.Sub(p.lastReplenish)
	if elapsed < replenishInterval {
		return
	}
	intervals := int64(elapsed / replenishInterval)
	p.credits += intervals
	if p.credits > p.limit {
		p.credits = p.limit
	}
	p.lastReplenish = p.lastReplenish.Add(time.Duration(intervals) * replenishInterval)
}

// clamp applies a new pool limit. Lowering the limit caps the current
// credits immediately; raising it never grants credits directly.
func (p *burstPool) clamp(limit int64) {
	p.limit = limit
	if p.credits > limit {
		p.credits = limit
	}
}

// refill restores the pool to its limit and restarts replenishment at now.
func (p *burstPool) refill(now time.Time) {
	p.credits = p.limit
	p.lastReplenish = now
}
