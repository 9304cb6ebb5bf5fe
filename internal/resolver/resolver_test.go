package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formprobe/internal/browser"
	"github.com/xkilldash9x/formprobe/internal/field"
	"github.com/xkilldash9x/formprobe/internal/mocks"
)

const testTimeout = 50 * time.Millisecond

var errTimeout = errors.New("timeout 50ms exceeded")

func newControl(desc string) *mocks.MockControl {
	c := new(mocks.MockControl)
	c.On("Description").Return(desc).Maybe()
	return c
}

func newPage() *mocks.MockPage {
	p := new(mocks.MockPage)
	p.On("ID").Return("page-1").Maybe()
	return p
}

// expectFallback wires the form-controls fallback and returns its control.
func expectFallback(p *mocks.MockPage) *mocks.MockControl {
	all := newControl("css=form controls")
	first := newControl("css=form controls >> nth=0")
	p.On("Query", browser.FormControls).Return(all)
	all.On("First").Return(first)
	return first
}

func TestResolve_LabelWins(t *testing.T) {
	p := newPage()
	byLabel := newControl("label")
	p.On("ByLabel", field.FirstName.LabelPattern).Return(byLabel)
	byLabel.On("WaitVisible", mock.Anything, testTimeout).Return(nil)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.FirstName)

	assert.Equal(t, StrategyLabel, res.Strategy)
	assert.Same(t, byLabel, res.Control)
	p.AssertNotCalled(t, "NearLabel", mock.Anything)
	p.AssertNotCalled(t, "ByPlaceholder", mock.Anything)
	p.AssertNotCalled(t, "Query", mock.Anything)
}

func TestResolve_AdjacencyReturnsFirstFollowingControl(t *testing.T) {
	p := newPage()
	byLabel := newControl("label")
	p.On("ByLabel", field.LastName.LabelPattern).Return(byLabel)
	byLabel.On("WaitVisible", mock.Anything, testTimeout).Return(errTimeout)

	near := newControl("near")
	nearFirst := newControl("near >> nth=0")
	p.On("NearLabel", "Last Name").Return(near)
	near.On("Count", mock.Anything).Return(2, nil)
	near.On("First").Return(nearFirst)
	nearFirst.On("WaitVisible", mock.Anything, testTimeout).Return(nil)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.LastName)

	assert.Equal(t, StrategyAdjacency, res.Strategy)
	assert.Same(t, nearFirst, res.Control)
	near.AssertNotCalled(t, "WaitVisible", mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "ByPlaceholder", mock.Anything)
}

func TestResolve_AdjacencySkippedWhenNothingFollows(t *testing.T) {
	p := newPage()
	byLabel := newControl("label")
	p.On("ByLabel", field.Email.LabelPattern).Return(byLabel)
	byLabel.On("WaitVisible", mock.Anything, testTimeout).Return(browser.ErrNoMatch)

	near := newControl("near")
	p.On("NearLabel", "Email address").Return(near)
	near.On("Count", mock.Anything).Return(0, nil)

	byPlaceholder := newControl("placeholder")
	p.On("ByPlaceholder", field.Email.PlaceholderPattern).Return(byPlaceholder)
	byPlaceholder.On("WaitVisible", mock.Anything, testTimeout).Return(nil)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.Email)

	assert.Equal(t, StrategyPlaceholder, res.Strategy)
	assert.Same(t, byPlaceholder, res.Control)
	near.AssertNotCalled(t, "First")
}

func TestResolve_FallbackNeverWaits(t *testing.T) {
	p := newPage()
	byLabel := newControl("label")
	p.On("ByLabel", mock.Anything).Return(byLabel)
	byLabel.On("WaitVisible", mock.Anything, testTimeout).Return(browser.ErrAmbiguous)

	near := newControl("near")
	nearFirst := newControl("near >> nth=0")
	p.On("NearLabel", mock.Anything).Return(near)
	near.On("Count", mock.Anything).Return(1, nil)
	near.On("First").Return(nearFirst)
	nearFirst.On("WaitVisible", mock.Anything, testTimeout).Return(browser.ErrNotVisible)

	byPlaceholder := newControl("placeholder")
	p.On("ByPlaceholder", mock.Anything).Return(byPlaceholder)
	byPlaceholder.On("WaitVisible", mock.Anything, testTimeout).Return(errTimeout)

	fallback := expectFallback(p)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.Phone)

	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Same(t, fallback, res.Control)
	fallback.AssertNotCalled(t, "WaitVisible", mock.Anything, mock.Anything)
}

func TestResolve_CountErrorIsSwallowed(t *testing.T) {
	p := newPage()
	byLabel := newControl("label")
	p.On("ByLabel", mock.Anything).Return(byLabel)
	byLabel.On("WaitVisible", mock.Anything, mock.Anything).Return(errTimeout)

	near := newControl("near")
	p.On("NearLabel", mock.Anything).Return(near)
	near.On("Count", mock.Anything).Return(0, errors.New("target closed"))

	byPlaceholder := newControl("placeholder")
	p.On("ByPlaceholder", mock.Anything).Return(byPlaceholder)
	byPlaceholder.On("WaitVisible", mock.Anything, mock.Anything).Return(nil)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.Password)
	assert.Equal(t, StrategyPlaceholder, res.Strategy)
}

func TestResolve_CancelledContextGoesToFallback(t *testing.T) {
	p := newPage()
	fallback := expectFallback(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(zaptest.NewLogger(t), testTimeout).Resolve(ctx, p, field.Country)

	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Same(t, fallback, res.Control)
	p.AssertNotCalled(t, "ByLabel", mock.Anything)
}

func TestResolve_SkipsMissingPatterns(t *testing.T) {
	p := newPage()
	fallback := expectFallback(p)

	res := New(zaptest.NewLogger(t), testTimeout).Resolve(context.Background(), p, field.Field{Name: "Nameless"})
	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Same(t, fallback, res.Control)
}

func TestNew_DefaultTimeout(t *testing.T) {
	r := New(zaptest.NewLogger(t), 0)
	require.Equal(t, DefaultAttemptTimeout, r.timeout)
	assert.Len(t, r.chain, 4)
	assert.Equal(t, StrategyFallback, r.chain[len(r.chain)-1].name)
}
