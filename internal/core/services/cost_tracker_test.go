package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostTracker_AccumulatesAcrossRoles(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("generator", "gpt-4o", 4000, 400, 120)
	tracker.Record("judge_a", "claude-3-5-sonnet-latest", 4000, 200, 80)

	summary := tracker.Summary()

	assert.Len(t, summary.Calls, 2)
	assert.Equal(t, 2000, summary.TotalInputTokens) // 4000/4 input chars-to-tokens, twice
	assert.Equal(t, 150, summary.TotalOutputTokens) // 400/4 + 200/4
	assert.Greater(t, summary.TotalCostUSD, 0.0)
}

func TestCostTracker_ByRoleGroupsCalls(t *testing.T) {
	tracker := NewCostTracker()
	tracker.Record("judge_a", "gpt-4o", 4000, 400, 100)
	tracker.Record("judge_a", "gpt-4o", 4000, 400, 100)
	tracker.Record("judge_b", "gpt-4o", 4000, 400, 100)

	byRole := tracker.Summary().ByRole()

	assert.Equal(t, 2, byRole["judge_a"].Calls)
	assert.Equal(t, 1, byRole["judge_b"].Calls)
}

func TestCostTracker_SafeForConcurrentUse(t *testing.T) {
	tracker := NewCostTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record("judge_a", "gpt-4o", 400, 40, 10)
		}()
	}
	wg.Wait()

	assert.Len(t, tracker.Summary().Calls, 50)
}
