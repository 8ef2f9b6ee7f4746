package quota

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is an injectable clock advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func int64Ptr(v int64) *int64 { return &v }

func testConfig(clock Clock) Config {
	return Config{
		RequestsPerMinute: 60,
		RequestsPerHour:   1000,
		RequestsPerDay:    10000,
		TokensPerMinute:   32000,
		TokensPerHour:     500000,
		TokensPerDay:      2000000,
		Clock:             clock,
	}
}

func mustLimiter(t *testing.T, cfg Config) *Limiter {
	t.Helper()
	limiter, err := NewLimiter(cfg)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	return limiter
}

// ============================================================================
// Construction Tests
// ============================================================================

func TestNewLimiter_RejectsMissingRequestCeilings(t *testing.T) {
	cases := []Config{
		{RequestsPerHour: 100, RequestsPerDay: 100},
		{RequestsPerMinute: 10, RequestsPerDay: 100},
		{RequestsPerMinute: 10, RequestsPerHour: 100},
		{RequestsPerMinute: -1, RequestsPerHour: 100, RequestsPerDay: 100},
	}

	for i, cfg := range cases {
		if _, err := NewLimiter(cfg); err == nil {
			t.Errorf("case %d: expected error for config %+v", i, cfg)
		}
	}
}

func TestNewLimiter_RejectsNegativeTokenCeilings(t *testing.T) {
	cfg := testConfig(nil)
	cfg.TokensPerHour = -1

	if _, err := NewLimiter(cfg); err == nil {
		t.Error("expected error for negative token ceiling")
	}
}

func TestNewLimiter_RejectsNegativeBurstLimit(t *testing.T) {
	cfg := testConfig(nil)
	cfg.BurstLimit = int64Ptr(-1)

	if _, err := NewLimiter(cfg); err == nil {
		t.Error("expected error for negative burst limit")
	}
}

func TestNewLimiter_DefaultBurstLimit(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, testConfig(clock))

	// nil BurstLimit defaults to RequestsPerMinute/2
	if got := limiter.BurstTokens(); got != 30 {
		t.Errorf("expected 30 default burst credits, got %d", got)
	}
}

func TestNewLimiter_ExplicitZeroBurstLimit(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	if got := limiter.BurstTokens(); got != 0 {
		t.Errorf("expected 0 burst credits, got %d", got)
	}

	// High-priority requests fall through to ordinary evaluation.
	decision := limiter.Check(Request{Priority: PriorityHigh})
	if !decision.Allowed || decision.ServedByBurst {
		t.Errorf("expected ordinary allow, got %+v", decision)
	}
}

// ============================================================================
// Request Ceiling Tests
// ============================================================================

func TestCheck_DeniesAtMinuteCeiling(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 5
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	for i := 0; i < 5; i++ {
		if d := limiter.Check(Request{}); !d.Allowed {
			t.Fatalf("request %d: expected allow, got %+v", i, d)
		}
	}

	decision := limiter.Check(Request{})
	if decision.Allowed {
		t.Fatal("expected denial at minute ceiling")
	}
	if decision.LimitType != LimitRequests {
		t.Errorf("expected limit type %q, got %q", LimitRequests, decision.LimitType)
	}
	if decision.Window != WindowMinute {
		t.Errorf("expected window %q, got %q", WindowMinute, decision.Window)
	}
	if decision.Message == "" {
		t.Error("expected non-empty denial message")
	}
}

func TestCheck_RetryAfterBounded(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{})
	clock.Advance(20 * time.Second)

	decision := limiter.Check(Request{})
	if decision.Allowed {
		t.Fatal("expected denial")
	}
	if decision.RetryAfter < 0 || decision.RetryAfter > time.Minute {
		t.Errorf("retry after %v out of [0, 1m]", decision.RetryAfter)
	}
	if decision.RetryAfter != 40*time.Second {
		t.Errorf("expected 40s retry after, got %v", decision.RetryAfter)
	}
}

func TestCheck_AllowsAfterWindowRollover(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 2
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{})
	limiter.Check(Request{})
	if d := limiter.Check(Request{}); d.Allowed {
		t.Fatal("expected denial at ceiling")
	}

	clock.Advance(61 * time.Second)

	decision := limiter.Check(Request{})
	if !decision.Allowed {
		t.Fatalf("expected allow after rollover, got %+v", decision)
	}
	if decision.Usage.Minute.Requests != 1 {
		t.Errorf("expected fresh minute count 1, got %d", decision.Usage.Minute.Requests)
	}
}

func TestCheck_HourCeilingIndependentOfMinute(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 10
	cfg.RequestsPerHour = 15
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	// Exhaust the hour across two minute windows.
	for i := 0; i < 10; i++ {
		limiter.Check(Request{})
	}
	clock.Advance(61 * time.Second)
	for i := 0; i < 5; i++ {
		if d := limiter.Check(Request{}); !d.Allowed {
			t.Fatalf("request %d: expected allow, got %+v", i, d)
		}
	}

	decision := limiter.Check(Request{})
	if decision.Allowed {
		t.Fatal("expected denial at hour ceiling")
	}
	if decision.Window != WindowHour {
		t.Errorf("expected window %q, got %q", WindowHour, decision.Window)
	}
	if decision.RetryAfter > time.Hour {
		t.Errorf("retry after %v exceeds hour span", decision.RetryAfter)
	}
}

// ============================================================================
// Token Ceiling Tests
// ============================================================================

func TestCheck_DeniesWhenTokenEstimateWouldExceed(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1000
	cfg.RequestsPerHour = 10000
	cfg.TokensPerMinute = 1000
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	// A single oversized request is denied even with zero recorded usage.
	decision := limiter.Check(Request{TokenEstimate: 1500})
	if decision.Allowed {
		t.Fatal("expected token denial")
	}
	if decision.LimitType != LimitTokens {
		t.Errorf("expected limit type %q, got %q", LimitTokens, decision.LimitType)
	}
	if decision.Window != WindowMinute {
		t.Errorf("expected window %q, got %q", WindowMinute, decision.Window)
	}

	// Denial recorded nothing.
	if usage := limiter.Usage(); usage.Minute.Requests != 0 || usage.Minute.Tokens != 0 {
		t.Errorf("denial mutated counters: %+v", usage.Minute)
	}
}

func TestCheck_ZeroTokenCeilingIsUnlimited(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.TokensPerMinute = 0
	cfg.TokensPerHour = 0
	cfg.TokensPerDay = 0
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	decision := limiter.Check(Request{TokenEstimate: 1 << 40})
	if !decision.Allowed {
		t.Fatalf("expected allow with unlimited tokens, got %+v", decision)
	}
}

func TestCheck_NegativeEstimateTreatedAsZero(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, testConfig(clock))

	decision := limiter.Check(Request{TokenEstimate: -500})
	if !decision.Allowed {
		t.Fatalf("expected allow, got %+v", decision)
	}
	if decision.Usage.Minute.Tokens != 0 {
		t.Errorf("expected 0 tokens recorded, got %d", decision.Usage.Minute.Tokens)
	}
}

// ============================================================================
// Burst Pool Tests
// ============================================================================

func TestCheck_BurstServesHighPriorityPastCeiling(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 2
	cfg.BurstLimit = int64Ptr(3)
	limiter := mustLimiter(t, cfg)

	// Burst path consumes credits even before the ceiling is reached.
	for i := 0; i < 3; i++ {
		d := limiter.Check(Request{Priority: PriorityHigh})
		if !d.Allowed || !d.ServedByBurst {
			t.Fatalf("burst request %d: expected burst allow, got %+v", i, d)
		}
	}

	if got := limiter.BurstTokens(); got != 0 {
		t.Errorf("expected empty burst pool, got %d credits", got)
	}

	// Credits exhausted: high priority falls through to ordinary checks.
	// Minute window already has 3 requests recorded, ceiling is 2.
	decision := limiter.Check(Request{Priority: PriorityHigh})
	if decision.Allowed {
		t.Fatal("expected denial after burst exhaustion")
	}
	if decision.ServedByBurst {
		t.Error("denial must not claim burst service")
	}
}

func TestCheck_BurstRecordsUsage(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(5)
	limiter := mustLimiter(t, cfg)

	decision := limiter.Check(Request{TokenEstimate: 700, Priority: PriorityHigh})
	if !decision.ServedByBurst {
		t.Fatal("expected burst service")
	}
	if decision.Usage.Minute.Requests != 1 || decision.Usage.Minute.Tokens != 700 {
		t.Errorf("burst usage not recorded: %+v", decision.Usage.Minute)
	}
}

func TestCheck_BypassBurstSkipsCreditPool(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = int64Ptr(5)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{})

	decision := limiter.Check(Request{Priority: PriorityHigh, BypassBurst: true})
	if decision.Allowed {
		t.Fatal("expected denial when burst bypassed at ceiling")
	}
	if got := limiter.BurstTokens(); got != 5 {
		t.Errorf("bypass consumed burst credits: %d left", got)
	}
}

func TestCheck_LowAndNormalPriorityNeverBurst(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = int64Ptr(5)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{})

	for _, priority := range []Priority{PriorityLow, PriorityNormal} {
		decision := limiter.Check(Request{Priority: priority})
		if decision.Allowed {
			t.Errorf("priority %q: expected denial at ceiling", priority)
		}
	}
	if got := limiter.BurstTokens(); got != 5 {
		t.Errorf("non-high priority consumed burst credits: %d left", got)
	}
}

func TestCheck_BurstReplenishesOverTime(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(3)
	limiter := mustLimiter(t, cfg)

	// Drain the pool.
	for i := 0; i < 3; i++ {
		limiter.Check(Request{Priority: PriorityHigh})
	}
	if got := limiter.BurstTokens(); got != 0 {
		t.Fatalf("expected drained pool, got %d", got)
	}

	// 25 seconds = 2 full 10s intervals.
	clock.Advance(25 * time.Second)
	limiter.Check(Request{})

	// 2 replenished, then one more high-priority check consumes one.
	d := limiter.Check(Request{Priority: PriorityHigh})
	if !d.ServedByBurst {
		t.Fatal("expected replenished credit to serve burst")
	}
	if got := limiter.BurstTokens(); got != 1 {
		t.Errorf("expected 1 credit remaining, got %d", got)
	}
}

func TestCheck_BurstReplenishmentCappedAtLimit(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(2)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{Priority: PriorityHigh})

	// Far more elapsed time than needed to refill.
	clock.Advance(10 * time.Minute)
	limiter.Check(Request{})

	if got := limiter.BurstTokens(); got != 2 {
		t.Errorf("expected pool capped at 2, got %d", got)
	}
}

// ============================================================================
// Probe Tests
// ============================================================================

func TestIsRateLimited_TracksRequestCeilingsOnly(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 2
	cfg.TokensPerMinute = 100
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	if limiter.IsRateLimited() {
		t.Fatal("fresh limiter must not be limited")
	}

	// Saturate tokens but not requests.
	limiter.Check(Request{TokenEstimate: 100})
	if limiter.IsRateLimited() {
		t.Error("token saturation must not flip IsRateLimited")
	}

	limiter.Check(Request{})
	if !limiter.IsRateLimited() {
		t.Error("expected limited at request ceiling")
	}

	clock.Advance(61 * time.Second)
	if limiter.IsRateLimited() {
		t.Error("expected unlimited after rollover")
	}
}

func TestTimeUntilNextRequest_ZeroWhenUnsaturated(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, testConfig(clock))

	if d := limiter.TimeUntilNextRequest(); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}

func TestTimeUntilNextRequest_ReportsFirstSaturatedWindow(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{})
	clock.Advance(15 * time.Second)

	if d := limiter.TimeUntilNextRequest(); d != 45*time.Second {
		t.Errorf("expected 45s, got %v", d)
	}
}

func TestProbes_DoNotRecordRequests(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, testConfig(clock))

	limiter.Check(Request{TokenEstimate: 100})

	for i := 0; i < 10; i++ {
		limiter.Usage()
		limiter.IsRateLimited()
		limiter.TimeUntilNextRequest()
		limiter.Status()
	}

	usage := limiter.Usage()
	if usage.Minute.Requests != 1 {
		t.Errorf("probes mutated request count: %d", usage.Minute.Requests)
	}
	if usage.Minute.Tokens != 100 {
		t.Errorf("probes mutated token count: %d", usage.Minute.Tokens)
	}
}

func TestStatus_ConsistentSnapshot(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 1
	cfg.BurstLimit = int64Ptr(4)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{TokenEstimate: 50})
	clock.Advance(10 * time.Second)

	status := limiter.Status()
	if !status.Limited {
		t.Error("expected limited")
	}
	if status.NextAvailable != 50*time.Second {
		t.Errorf("expected 50s next available, got %v", status.NextAvailable)
	}
	if status.Usage.Minute.Requests != 1 || status.Usage.Minute.Tokens != 50 {
		t.Errorf("unexpected usage: %+v", status.Usage.Minute)
	}
	if status.BurstTokens != 4 {
		t.Errorf("expected 4 burst credits, got %d", status.BurstTokens)
	}
}

// ============================================================================
// Reset and Update Tests
// ============================================================================

func TestReset_ClearsCountersAndRefillsBurst(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 2
	cfg.BurstLimit = int64Ptr(3)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{TokenEstimate: 100})
	limiter.Check(Request{TokenEstimate: 100})
	limiter.Check(Request{Priority: PriorityHigh})

	limiter.Reset()

	if limiter.IsRateLimited() {
		t.Error("expected unlimited after reset")
	}
	usage := limiter.Usage()
	if usage.Minute.Requests != 0 || usage.Hour.Requests != 0 || usage.Day.Requests != 0 {
		t.Errorf("reset left request counts: %+v", usage)
	}
	if usage.Minute.Tokens != 0 {
		t.Errorf("reset left token counts: %d", usage.Minute.Tokens)
	}
	if got := limiter.BurstTokens(); got != 3 {
		t.Errorf("expected refilled burst pool, got %d", got)
	}
}

func TestUpdateConfig_MergesAndValidates(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, testConfig(clock))

	if err := limiter.UpdateConfig(ConfigUpdate{RequestsPerMinute: int64Ptr(10)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := limiter.Config().RequestsPerMinute; got != 10 {
		t.Errorf("expected merged ceiling 10, got %d", got)
	}
	if got := limiter.Config().RequestsPerHour; got != 1000 {
		t.Errorf("untouched field changed: %d", got)
	}

	// Invalid merge leaves config unchanged.
	if err := limiter.UpdateConfig(ConfigUpdate{RequestsPerHour: int64Ptr(0)}); err == nil {
		t.Fatal("expected validation error")
	}
	if got := limiter.Config().RequestsPerHour; got != 1000 {
		t.Errorf("failed update mutated config: %d", got)
	}
}

func TestUpdateConfig_ShrinkingBurstLimitClampsCredits(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(10)
	limiter := mustLimiter(t, cfg)

	if err := limiter.UpdateConfig(ConfigUpdate{BurstLimit: int64Ptr(2)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := limiter.BurstTokens(); got != 2 {
		t.Errorf("expected clamped pool 2, got %d", got)
	}
}

func TestUpdateConfig_RaisingBurstLimitDoesNotGrantCredits(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.BurstLimit = int64Ptr(2)
	limiter := mustLimiter(t, cfg)

	limiter.Check(Request{Priority: PriorityHigh})
	limiter.Check(Request{Priority: PriorityHigh})

	if err := limiter.UpdateConfig(ConfigUpdate{BurstLimit: int64Ptr(10)}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := limiter.BurstTokens(); got != 0 {
		t.Errorf("raising limit granted credits: %d", got)
	}
}

// ============================================================================
// Scenario Tests
// ============================================================================

func TestScenario_MixedPriorityExhaustion(t *testing.T) {
	clock := newFakeClock()
	limiter := mustLimiter(t, Config{
		RequestsPerMinute: 5,
		RequestsPerHour:   1000,
		RequestsPerDay:    10000,
		TokensPerMinute:   1000,
		BurstLimit:        int64Ptr(2),
		Clock:             clock,
	})

	// Five 100-token requests fill the minute's request ceiling.
	for i := 0; i < 5; i++ {
		d := limiter.Check(Request{TokenEstimate: 100})
		if !d.Allowed || d.ServedByBurst {
			t.Fatalf("request %d: expected ordinary allow, got %+v", i, d)
		}
	}
	if usage := limiter.Usage(); usage.Minute.Tokens != 500 {
		t.Fatalf("expected 500 tokens recorded, got %d", usage.Minute.Tokens)
	}

	// Sixth normal request denied on minute/requests.
	d := limiter.Check(Request{TokenEstimate: 100})
	if d.Allowed || d.LimitType != LimitRequests || d.Window != WindowMinute {
		t.Fatalf("expected minute request denial, got %+v", d)
	}

	// Seventh and eighth, high priority, ride the burst pool.
	for i := 0; i < 2; i++ {
		d := limiter.Check(Request{TokenEstimate: 100, Priority: PriorityHigh})
		if !d.Allowed || !d.ServedByBurst {
			t.Fatalf("burst request %d: expected burst allow, got %+v", i, d)
		}
	}

	// Ninth, high priority, denied: credits gone and ceiling exceeded.
	d = limiter.Check(Request{TokenEstimate: 100, Priority: PriorityHigh})
	if d.Allowed {
		t.Fatalf("expected denial, got %+v", d)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestCheck_ConcurrentNeverOverAdmits(t *testing.T) {
	clock := newFakeClock()
	cfg := testConfig(clock)
	cfg.RequestsPerMinute = 50
	cfg.RequestsPerHour = 50
	cfg.RequestsPerDay = 50
	cfg.BurstLimit = int64Ptr(0)
	limiter := mustLimiter(t, cfg)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check(Request{}).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 admissions, got %d", allowed)
	}
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkCheck_Allowed(b *testing.B) {
	limiter, _ := NewLimiter(Config{
		RequestsPerMinute: int64(b.N) + 1,
		RequestsPerHour:   int64(b.N) + 1,
		RequestsPerDay:    int64(b.N) + 1,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Check(Request{TokenEstimate: 100})
	}
}

func BenchmarkCheck_Denied(b *testing.B) {
	limiter, _ := NewLimiter(Config{
		RequestsPerMinute: 1,
		RequestsPerHour:   1000,
		RequestsPerDay:    10000,
		BurstLimit:        int64Ptr(0),
	})
	limiter.Check(Request{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Check(Request{})
	}
}
