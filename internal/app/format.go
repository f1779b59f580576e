package app

import (
	"fmt"
	"strings"

	"trivia-bot/internal/domain"
)

const (
	leaderboardAllTime    = "🏆 **All-Time Leaderboard**"
	leaderboardAfterRound = "🏆 **Leaderboard after this round:**"
	leaderboardEmpty      = "Nobody scored anything so far! 💀"
)

func roundStartText(n int) string {
	return fmt.Sprintf("🎉 New quiz round starting! %d questions ahead!", n)
}

func promptText(number, total int, q domain.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❓ Question %d/%d", number, total)
	if q.Category != "" {
		fmt.Fprintf(&b, " [%s]", q.Category)
	}
	fmt.Fprintf(&b, ":\n**%s**", q.Prompt)
	if q.MediaURL != "" {
		fmt.Fprintf(&b, "\n▶️ %s", q.MediaURL)
	}
	return b.String()
}

func revealText(q domain.Question) string {
	if q.Artist != "" {
		return fmt.Sprintf("**%s** by *%s*", q.Answer, q.Artist)
	}
	return fmt.Sprintf("**%s**", q.Answer)
}

func acceptedText(w domain.Winner, total int) string {
	if w.Rank == 1 {
		return fmt.Sprintf("⚡ Fastest Finger! ✅ Correct, %s! +%d points 🎉 (Total this round: %d points)", w.Name, w.Points, total)
	}
	return fmt.Sprintf("✅ %s got it too! +%d points (Total this round: %d points)", w.Name, w.Points, total)
}

func questionResultText(q domain.Question, winners []domain.Winner) string {
	if len(winners) == 0 {
		return "⏰ Time's up! The correct answer was: " + revealText(q)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Time's up! The answer was %s", revealText(q))
	for _, w := range winners {
		fmt.Fprintf(&b, "\n%d. %s +%d", w.Rank, w.Name, w.Points)
	}
	return b.String()
}

func standingsText(title string, standings []domain.Standing) string {
	if len(standings) == 0 {
		return leaderboardEmpty
	}
	lines := make([]string, 0, len(standings)+1)
	lines = append(lines, title)
	for _, s := range standings {
		lines = append(lines, fmt.Sprintf("**%d. %s** - %d points", s.Rank, s.Name, s.Score))
	}
	return strings.Join(lines, "\n")
}

func roundWinnersText(leaders []domain.Standing) string {
	switch len(leaders) {
	case 0:
		return "No points were scored this round."
	case 1:
		return fmt.Sprintf("👑 Round winner: %s with %d points!", leaders[0].Name, leaders[0].Score)
	}
	names := make([]string, len(leaders))
	for i, l := range leaders {
		names[i] = l.Name
	}
	return fmt.Sprintf("👑 Round winners (tied): %s with %d points!", strings.Join(names, ", "), leaders[0].Score)
}
