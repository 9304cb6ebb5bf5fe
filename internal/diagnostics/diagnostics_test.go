package diagnostics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecord(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewRecorder(zap.New(core))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("ART", -3*3600))
	r.now = func() time.Time { return fixed }

	ctx := WithScenario(context.Background(), "Short phone numbers are rejected")
	d := r.Record(ctx, KindValidityNotEnforced, "Phone", "page-1", `"Phone" should be invalid but the site accepts it`)

	_, err := uuid.Parse(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short phone numbers are rejected", d.Scenario)
	assert.Equal(t, fixed.UTC(), d.At)
	assert.Equal(t, []Defect{d}, r.Defects())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "validity-not-enforced", entry.ContextMap()["kind"])
	assert.Equal(t, "Phone", entry.ContextMap()["field"])
}

func TestScenarioFromEmptyContext(t *testing.T) {
	assert.Empty(t, ScenarioFrom(context.Background()))
}

func TestDefectsReturnsCopy(t *testing.T) {
	r := NewRecorder(zap.NewNop())
	r.Record(context.Background(), KindTermsCheckboxDisabled, "Terms", "page-1", "disabled")

	got := r.Defects()
	got[0].Message = "mutated"
	assert.Equal(t, "disabled", r.Defects()[0].Message)
}

func TestConcurrentRecord(t *testing.T) {
	r := NewRecorder(zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(context.Background(), KindValidityNotEnforced, "Email", fmt.Sprintf("page-%d", i), "accepted")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	seen := make(map[string]bool)
	for _, d := range r.Defects() {
		assert.False(t, seen[d.ID], "ids are unique")
		seen[d.ID] = true
	}
}

func TestKindDescribe(t *testing.T) {
	for _, k := range Kinds {
		assert.NotEqual(t, string(k), k.Describe())
	}
	assert.Equal(t, "other", Kind("other").Describe())
}
