package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"morning-blessing/internal/domain"
)

// fakeDispatcher records sent records and optionally fails for some names.
type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []domain.GreetingRecord
	failFor map[string]error
}

func (f *fakeDispatcher) Send(_ context.Context, rec domain.GreetingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, rec)
	if err, ok := f.failFor[rec.Name]; ok {
		return err
	}
	return nil
}

func (f *fakeDispatcher) sentNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.sent))
	for i, r := range f.sent {
		names[i] = r.Name
	}
	return names
}

func twoRecipients() *fakeRecipients {
	return &fakeRecipients{list: []domain.Recipient{
		{Name: "a", Cities: []string{"北京"}, Desc: "软件工程师"},
		{Name: "b", Cities: []string{"上海"}, Desc: "产品经理"},
	}}
}

func numbersFor(names ...string) map[string]string {
	values := make(map[string]string, len(names))
	for i, n := range names {
		values["/morning-blessing/numbers/"+n] = "1380000000" + string(rune('0'+i))
	}
	return values
}

func newTestRunner(t *testing.T, recipients RecipientSource, numbers ParamGetter, llm GenerationClient, dispatcher Dispatcher) *Runner {
	t.Helper()
	greetings := newTestGreetingService(t, recipients, numbers, llm)
	r, err := NewRunner(greetings, dispatcher, nil)
	require.NoError(t, err)
	return r
}

func TestResolve(t *testing.T) {
	recipients := twoRecipients()
	require.Equal(t, []string{"a", "b"}, Resolve("all", recipients))
	require.Equal(t, []string{"a", "b"}, Resolve("", recipients))
	require.Equal(t, []string{"b"}, Resolve("b", recipients))
	require.Equal(t, []string{"b", "a"}, Resolve(" b , a ", recipients))
	require.Equal(t, []string{"a"}, Resolve("a,", recipients))
}

func TestRun_PreservesRequestOrder(t *testing.T) {
	// Slow down recipient "a" so "b" finishes first; the report must still
	// list "a" before "b".
	numbers := &fakeNumbers{
		values: numbersFor("A", "B"),
		delays: map[string]time.Duration{"/morning-blessing/numbers/A": 80 * time.Millisecond},
	}
	r := newTestRunner(t, twoRecipients(), numbers, &personaClient{answers: fullAnswers()}, nil)

	results := r.Run(context.Background(), []string{"a", "b"}, true)
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0].Name)
	require.Equal(t, "b", results[1].Name)
}

func TestRun_DryRunSkipsDispatch(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	numbers := &fakeNumbers{values: numbersFor("A", "B")}
	r := newTestRunner(t, twoRecipients(), numbers, &personaClient{answers: fullAnswers()}, dispatcher)

	results := r.Run(context.Background(), []string{"a", "b"}, true)
	require.Empty(t, dispatcher.sent)
	for _, res := range results {
		require.Nil(t, res.Delivered)
	}
}

func TestRun_DispatchesOnlyNonDegraded(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	numbers := &fakeNumbers{values: numbersFor("A")} // no number for b
	r := newTestRunner(t, twoRecipients(), numbers, &personaClient{answers: fullAnswers()}, dispatcher)

	results := r.Run(context.Background(), []string{"a", "b"}, false)

	require.Equal(t, []string{"a"}, dispatcher.sentNames())
	require.NotNil(t, results[0].Delivered)
	require.True(t, *results[0].Delivered)
	require.True(t, results[1].Degraded)
	require.Nil(t, results[1].Delivered, "degraded records carry no delivery outcome")
}

func TestRun_RecordsDispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{failFor: map[string]error{"b": errors.New("throttled")}}
	numbers := &fakeNumbers{values: numbersFor("A", "B")}
	r := newTestRunner(t, twoRecipients(), numbers, &personaClient{answers: fullAnswers()}, dispatcher)

	results := r.Run(context.Background(), []string{"a", "b"}, false)
	require.True(t, *results[0].Delivered)
	require.False(t, *results[1].Delivered)
}

func TestRun_NilDispatcherNeverDispatches(t *testing.T) {
	numbers := &fakeNumbers{values: numbersFor("A", "B")}
	r := newTestRunner(t, twoRecipients(), numbers, &personaClient{answers: fullAnswers()}, nil)

	results := r.Run(context.Background(), []string{"a", "b"}, false)
	for _, res := range results {
		require.Nil(t, res.Delivered)
	}
}

// TestRun_EndToEnd drives one recipient through canned generation responses
// for all four call types and a succeeding dispatcher, and checks that every
// report field is populated.
func TestRun_EndToEnd(t *testing.T) {
	recipients := &fakeRecipients{list: []domain.Recipient{
		{Name: "alice", Cities: []string{"北京"}, Desc: "软件工程师"},
	}}
	numbers := &fakeNumbers{values: map[string]string{
		"/morning-blessing/numbers/ALICE": "13800000000",
	}}
	dispatcher := &fakeDispatcher{}
	r := newTestRunner(t, recipients, numbers, &personaClient{answers: fullAnswers()}, dispatcher)

	results := r.Run(context.Background(), []string{"alice"}, false)
	require.Len(t, results, 1)

	rec := results[0]
	require.Equal(t, "alice", rec.Name)
	require.Equal(t, "13800000000", rec.PhoneNumbers)
	require.Equal(t, "北京", rec.City)
	require.Equal(t, "晴,最高28度", rec.Weather)
	require.Equal(t, "第一条要闻", rec.Hashtag1)
	require.Equal(t, "第二条要闻", rec.Hashtag2)
	require.Equal(t, "第三条要闻", rec.Hashtag3)
	require.Equal(t, "祝你今天顺利", rec.Blessings)
	require.NotNil(t, rec.Delivered)
	require.True(t, *rec.Delivered)

	require.Equal(t, []string{"alice"}, dispatcher.sentNames())
}
