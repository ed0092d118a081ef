package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var exportMu sync.Mutex

// FileExporter appends every finished game to filename.
func FileExporter(filename string) Exporter {
	return func(gs GameState) error { return ExportGame(gs, filename) }
}

// ExportGame appends a plain-text summary of a finished game to filename.
func ExportGame(gs GameState, filename string) error {
	exportMu.Lock()
	defer exportMu.Unlock()

	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(renderGame(gs, time.Now())); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func renderGame(gs GameState, at time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Undercover Game Results - Room %s\n", gs.Room.Code))
	sb.WriteString(fmt.Sprintf("Finished: %s after %d round(s)\n", at.Format("2006-01-02 15:04:05"), gs.Room.CurrentRound))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	if w := gs.Room.Words; w != nil {
		sb.WriteString(fmt.Sprintf("Words: civilian %q, undercover %q\n", w.Civilian, w.Undercover))
	}

	sb.WriteString("\nPlayers:\n")
	for _, p := range gs.Players {
		status := "survived"
		if !p.IsAlive {
			status = fmt.Sprintf("eliminated in round %d", p.EliminatedInRound)
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", p.Name, p.Role, status))
	}

	if gs.Winner != nil {
		names := make([]string, 0, len(gs.Winner.Players))
		for _, p := range gs.Winner.Players {
			names = append(names, p.Name)
		}
		sb.WriteString(fmt.Sprintf("\nWinner: %s (%s)\n", gs.Winner.Team, strings.Join(names, ", ")))
	}

	sb.WriteString("\nScores:\n")
	scores := append([]Player(nil), gs.Players...)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	for _, p := range scores {
		sb.WriteString(fmt.Sprintf("- %s: %d points\n", p.Name, p.Score))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	return sb.String()
}
