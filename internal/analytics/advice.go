package analytics

import "strings"

// Тексты подсказок. Ядро их только выбирает, показывает презентационный слой.

// MoodLabel — словесная оценка последнего чек-ина.
func MoodLabel(mood int) string {
	switch {
	case mood >= 5:
		return "Excellent"
	case mood == 4:
		return "Good"
	case mood == 3:
		return "Okay"
	case mood == 2:
		return "Low"
	default:
		return "Very low"
	}
}

// CopingSuggestion — короткий совет по текущей оценке настроения.
func CopingSuggestion(mood int) string {
	switch {
	case mood >= 4:
		return "Keep the streak: write 1 thing you did well today and repeat it tomorrow."
	case mood == 3:
		return "Try: 10 minutes focus on one small task + 60 seconds breathing."
	case mood == 2:
		return "Try: drink water, 5-4-3-2-1 grounding, and tell a trusted adult you’re stressed."
	default:
		return "Pause. Breathe slowly for 60 seconds. If you feel unsafe, tell a trusted adult immediately."
	}
}

// RecommendedActions — рекомендации школе по верхней теме распределения причин.
func RecommendedActions(counts map[string]int) []string {
	var actions []string

	top := ""
	if ranked := TopCategories(counts, 1); len(ranked) > 0 {
		top = ranked[0].Cause
	}

	if top == "" {
		actions = append(actions, "Collect more anonymous check-ins to see patterns.")
	} else {
		if strings.Contains(top, "Exams") {
			actions = append(actions, "Coordinate assessment calendar; run study skills + time management session.")
		}
		if strings.Contains(top, "Friendship") {
			actions = append(actions, "Peer support + anti-bullying activities + empathy scenario game day.")
		}
		if strings.Contains(top, "Online") {
			actions = append(actions, "Healthy screen habits week; teach digital wellbeing boundaries.")
		}
		if strings.Contains(top, "Family") {
			actions = append(actions, "Offer parent workshop: communication + routine building.")
		}
		if strings.Contains(top, "Health") {
			actions = append(actions, "Promote sleep, hydration, and movement micro-breaks in classes.")
		}
		if strings.Contains(top, "Sports") {
			actions = append(actions, "Balance training loads; include recovery + mindset sessions.")
		}
		if strings.Contains(top, "Other") {
			actions = append(actions, "Run an anonymous ‘What stresses you most?’ poll (no identities).")
		}
	}

	actions = append(actions,
		"Offer a 60-second breathing reset at start of class (opt-in).",
		"Ensure safe reporting pathways outside the app if needed.",
	)
	return actions
}
