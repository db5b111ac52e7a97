package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"morning-blessing/internal/domain"
)

// scriptedClient is a GenerationClient fake returning canned outcomes in
// order, then repeating the last one. Safe for concurrent use, since the
// gatherers call it from separate goroutines.
type scriptedClient struct {
	mu    sync.Mutex
	texts []string
	errs  []error
	calls int
	seeds []int

	// lastMessages captures the conversation of the most recent call.
	lastMessages []domain.ChatMessage
	searchFlags  []bool
}

func (s *scriptedClient) Generate(_ context.Context, messages []domain.ChatMessage, seed int, enableSearch bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.texts) {
		i = len(s.texts) - 1
	}
	s.calls++
	s.seeds = append(s.seeds, seed)
	s.lastMessages = messages
	s.searchFlags = append(s.searchFlags, enableSearch)
	return s.texts[i], s.errs[i]
}

func newTestQuerier(t *testing.T, llm GenerationClient) *ModelQuerier {
	t.Helper()
	q, err := NewModelQuerier(llm, nil)
	require.NoError(t, err)
	return q
}

func TestNewModelQuerier_NilClient(t *testing.T) {
	_, err := NewModelQuerier(nil, nil)
	require.Error(t, err)
}

func TestQuery_SucceedsOnFinalAttempt(t *testing.T) {
	llm := &scriptedClient{
		texts: []string{"", "", "Good morning 早安，世界。"},
		errs:  []error{errors.New("status 500"), errors.New("timeout"), nil},
	}
	q := newTestQuerier(t, llm)

	res := q.Query(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}, true)
	require.True(t, res.OK)
	require.Equal(t, "早安,世界.", res.Text, "success value must be sanitized")
	require.Equal(t, 3, llm.calls)
}

func TestQuery_ExhaustionReturnsSentinel(t *testing.T) {
	llm := &scriptedClient{
		texts: []string{""},
		errs:  []error{errors.New("always down")},
	}
	q := newTestQuerier(t, llm)

	res := q.Query(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}, true)
	require.False(t, res.OK)
	require.Equal(t, domain.NoData, res.Text)
	require.Equal(t, 3, llm.calls, "must retry exactly three attempts")
}

func TestQuery_FreshSeedPerCall(t *testing.T) {
	llm := &scriptedClient{texts: []string{"好"}, errs: []error{nil}}
	q := newTestQuerier(t, llm)
	next := 0
	q.seed = func() int { next++; return next }

	_ = q.Query(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "a"}}, true)
	_ = q.Query(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "b"}}, false)
	require.Equal(t, []int{1, 2}, llm.seeds)
	require.Equal(t, []bool{true, false}, llm.searchFlags)
}

func TestNewSeed_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		s := newSeed()
		require.GreaterOrEqual(t, s, 1)
		require.LessOrEqual(t, s, seedMax)
	}
}
