package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"interview-coach/internal/storage"
)

// DailyStats содержит статистику за день
type DailyStats struct {
	Date                string         `json:"date"`
	ChatTurns           int            `json:"chat_turns"`
	Evaluations         int            `json:"evaluations"`
	FallbackEvaluations int            `json:"fallback_evaluations"`
	UniqueSessions      int            `json:"unique_sessions"`
	AverageScore        float64        `json:"average_score"`
	ScoreDistribution   map[int]int    `json:"score_distribution"`
	ModelsUsed          map[string]int `json:"models_used"`
}

// AnalyzeDailyLogs анализирует события за указанную дату
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	// Нормализуем дату до начала дня
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:              startOfDay.Format("2006-01-02"),
		ScoreDistribution: make(map[int]int),
		ModelsUsed:        make(map[string]int),
	}

	sessions := make(map[string]struct{})
	scoreSum := 0

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}

		switch event.Kind {
		case storage.KindChat:
			stats.ChatTurns++
			if event.SessionID != "" {
				sessions[event.SessionID] = struct{}{}
			}
			if event.Model != "" {
				stats.ModelsUsed[event.Model]++
			}
		case storage.KindEvaluate:
			stats.Evaluations++
			if event.Fallback {
				stats.FallbackEvaluations++
			}
			if event.Score != nil {
				scoreSum += *event.Score
				stats.ScoreDistribution[*event.Score]++
			}
		}
	}

	stats.UniqueSessions = len(sessions)
	if scored := countScored(stats.ScoreDistribution); scored > 0 {
		stats.AverageScore = float64(scoreSum) / float64(scored)
	}
	return stats
}

func countScored(dist map[int]int) int {
	n := 0
	for _, c := range dist {
		n += c
	}
	return n
}

// GenerateReportSummary создает текстовое резюме для ежедневного отчета
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Статистика Interview Coach за %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "Диалоги:\n- Ходов в чате: %d\n- Уникальных сессий: %d\n\n", ds.ChatTurns, ds.UniqueSessions)
	fmt.Fprintf(&b, "Оценки:\n- Всего оценок: %d\n- Без JSON (fallback): %d\n- Средний балл: %.1f\n",
		ds.Evaluations, ds.FallbackEvaluations, ds.AverageScore)

	if len(ds.ScoreDistribution) > 0 {
		scores := make([]int, 0, len(ds.ScoreDistribution))
		for s := range ds.ScoreDistribution {
			scores = append(scores, s)
		}
		sort.Ints(scores)
		b.WriteString("\nРаспределение баллов:\n")
		for _, s := range scores {
			fmt.Fprintf(&b, "- %d: %d\n", s, ds.ScoreDistribution[s])
		}
	}

	if len(ds.ModelsUsed) > 0 {
		models := make([]string, 0, len(ds.ModelsUsed))
		for m := range ds.ModelsUsed {
			models = append(models, m)
		}
		sort.Strings(models)
		b.WriteString("\nМодели:\n")
		for _, m := range models {
			fmt.Fprintf(&b, "- %s: %d\n", m, ds.ModelsUsed[m])
		}
	}

	return b.String()
}

// ToJSON сериализует статистику в JSON
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
