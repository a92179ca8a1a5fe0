package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	t.Parallel()

	allowed := map[Status][]Status{
		StatusSubmitted:         {StatusInDiscussion, StatusResolvedBlocked, StatusResolvedLaunching, StatusResolvedLaunched},
		StatusInDiscussion:      {StatusResolvedBlocked, StatusResolvedLaunching, StatusResolvedLaunched},
		StatusResolvedLaunching: {StatusInDiscussion, StatusResolvedLaunched},
		StatusResolvedBlocked:   {StatusInDiscussion},
		StatusResolvedLaunched:  {},
	}

	for _, from := range Statuses {
		want := map[Status]bool{}
		for _, to := range allowed[from] {
			want[to] = true
		}
		for _, to := range Statuses {
			assert.Equal(t, want[to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_RejectsSameStateAndUnknown(t *testing.T) {
	t.Parallel()

	for _, s := range Statuses {
		assert.False(t, CanTransition(s, s), s)
	}
	assert.False(t, CanTransition("DRAFT", StatusSubmitted))
	assert.False(t, CanTransition(StatusSubmitted, "DONE"))
}

func TestAllowedTransitions_Ordered(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]Status{StatusInDiscussion, StatusResolvedBlocked, StatusResolvedLaunching, StatusResolvedLaunched},
		AllowedTransitions(StatusSubmitted))
	assert.Equal(t, []Status{StatusInDiscussion, StatusResolvedLaunched}, AllowedTransitions(StatusResolvedLaunching))
	assert.Empty(t, AllowedTransitions(StatusResolvedLaunched))
}

func TestNextStatus(t *testing.T) {
	t.Parallel()

	next, ok := NextStatus(StatusSubmitted)
	assert.True(t, ok)
	assert.Equal(t, StatusInDiscussion, next)

	next, ok = NextStatus(StatusResolvedLaunching)
	assert.True(t, ok)
	assert.Equal(t, StatusResolvedLaunched, next)

	_, ok = NextStatus(StatusInDiscussion)
	assert.False(t, ok)
	_, ok = NextStatus(StatusResolvedLaunched)
	assert.False(t, ok)
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusResolvedBlocked.IsResolved())
	assert.False(t, StatusInDiscussion.IsResolved())
	assert.True(t, StatusResolvedLaunched.IsTerminal())
	assert.False(t, StatusResolvedBlocked.IsTerminal())
	assert.False(t, Status("X").Valid())
}
