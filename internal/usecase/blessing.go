package usecase

import (
	"context"
	"fmt"
	"strings"

	"morning-blessing/internal/domain"
)

// Blessing composes the morning greeting from the gathered facts. Search is
// disabled: this is pure generation over the supplied context.
func (s *FactService) Blessing(ctx context.Context, holiday, desc, city, weather string, headlines [3]string) string {
	news := strings.Join(headlines[:], "；")
	prompt := fmt.Sprintf("%s\n我是一名%s，我在%s，今天的天气是：%s，\n今天的新闻是：%s\n请依照这些信息，为我写一段晨间祝福语。总结为不超过25字",
		holiday, desc, city, weather, news)
	res := s.querier.Query(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "你是一生成祝福语的机器人"},
		{Role: domain.RoleUser, Content: prompt},
	}, false)
	return truncate(res.Text, factLimit)
}
