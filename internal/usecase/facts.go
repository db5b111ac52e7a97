package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"morning-blessing/internal/domain"
)

const (
	factLimit     = 30
	headlineCount = 3
)

// headlinePrefix matches the leading numbering models tend to emit, e.g.
// "1." or "2,".
var headlinePrefix = regexp.MustCompile(`^\d+[.,]?`)

// weekdayNames is indexed by time.Weekday (Sunday first).
var weekdayNames = [7]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// FactService runs the per-recipient fact gatherers and the blessing
// composer on top of the model querier.
type FactService struct {
	querier *ModelQuerier
	now     func() time.Time
}

func NewFactService(querier *ModelQuerier) (*FactService, error) {
	if querier == nil {
		return nil, errors.New("usecase: model querier must not be nil")
	}
	return &FactService{querier: querier, now: time.Now}, nil
}

// Holiday asks whether today is a workday or a named holiday. The prompt
// carries today's date and weekday so the answer is grounded to "today"
// rather than the backend's own clock.
func (s *FactService) Holiday(ctx context.Context) string {
	today := s.now()
	question := fmt.Sprintf("今天是%d年%d月%d日，%s。今天是工作日还是某个节假日？总结为不超过5字",
		today.Year(), int(today.Month()), today.Day(), weekdayNames[today.Weekday()])
	res := s.querier.Query(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "你是一个日历查询机器人"},
		{Role: domain.RoleUser, Content: question},
	}, true)
	return truncate(res.Text, factLimit)
}

// Weather summarizes the current weather and the day's high for a city.
func (s *FactService) Weather(ctx context.Context, city string) string {
	question := fmt.Sprintf("今天%s天气怎么样？最高气温多少度？总结为不超过25字", city)
	res := s.querier.Query(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "你是一个天气查询机器人"},
		{Role: domain.RoleUser, Content: question},
	}, true)
	return truncate(res.Text, factLimit)
}

// Headlines fetches today's top stories and condenses them into exactly
// three one-line summaries. The condensation turn runs with search disabled
// since it only reworks the already-fetched answer.
func (s *FactService) Headlines(ctx context.Context) [3]string {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "你是一个新闻推送机器人"},
		{Role: domain.RoleUser, Content: "今天有何头条新闻？"},
	}
	first := s.querier.Query(ctx, messages, true)

	messages = append(messages,
		domain.ChatMessage{Role: domain.RoleAssistant, Content: first.Text},
		domain.ChatMessage{Role: domain.RoleUser, Content: "总结成三句话，每句一行，每句不超过25字"},
	)
	second := s.querier.Query(ctx, messages, false)
	return splitHeadlines(second.Text)
}

// splitHeadlines collects the first three non-empty lines, each stripped of
// leading numbering and bounded, padding the remainder with the sentinel.
func splitHeadlines(raw string) [3]string {
	var out [3]string
	n := 0
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = headlinePrefix.ReplaceAllString(line, "")
		line = truncate(strings.TrimSpace(line), factLimit)
		if line == "" {
			continue
		}
		out[n] = line
		n++
		if n == headlineCount {
			break
		}
	}
	for ; n < headlineCount; n++ {
		out[n] = domain.NoData
	}
	return out
}

// truncate bounds s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
