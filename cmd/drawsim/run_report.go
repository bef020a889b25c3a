package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/session"
)

type buildRunReportInput struct {
	Seed             *uint64
	DrawsRequested   int
	BatchesRequested int
	BatchSize        int
	Draws            []session.DrawResult
	History          []domain.HistoryEntry
	Final            session.View
}

type runReport struct {
	SessionID        string           `json:"session_id"`
	Suits            []string         `json:"suits"`
	Seed             *uint64          `json:"seed,omitempty"`
	DrawsRequested   int              `json:"draws_requested"`
	BatchesRequested int              `json:"batches_requested"`
	BatchSize        int              `json:"batch_size"`
	TotalDraws       int              `json:"total_draws"`
	TopCards         []string         `json:"top_cards"`
	TopNumbers       []int            `json:"top_numbers"`
	Draws            []runReportDraw  `json:"draws"`
	Batches          []runReportBatch `json:"batches"`
}

type runReportDraw struct {
	Cards       []runReportCard `json:"cards"`
	Number      int             `json:"number"`
	RealNumbers []int           `json:"real_numbers"`
}

type runReportCard struct {
	Key   string `json:"key"`
	Color string `json:"color"`
}

type runReportBatch struct {
	Seq        int      `json:"seq"`
	Attempts   int      `json:"attempts"`
	Draws      int      `json:"draws"`
	TopCards   []string `json:"top_cards"`
	TopNumbers []int    `json:"top_numbers"`
	Line       string   `json:"line"`
}

func buildRunReport(input buildRunReportInput) runReport {
	report := runReport{
		SessionID:        input.Final.ID,
		Suits:            append([]string(nil), input.Final.Suits...),
		Seed:             input.Seed,
		DrawsRequested:   input.DrawsRequested,
		BatchesRequested: input.BatchesRequested,
		BatchSize:        input.BatchSize,
		TotalDraws:       input.Final.Stats.Draws,
		TopCards:         append([]string{}, input.Final.TopCards...),
		TopNumbers:       append([]int{}, input.Final.TopNumbers...),
		Draws:            make([]runReportDraw, 0, len(input.Draws)),
		Batches:          make([]runReportBatch, 0, len(input.History)),
	}

	for _, draw := range input.Draws {
		report.Draws = append(report.Draws, mapDraw(draw))
	}
	for _, entry := range input.History {
		report.Batches = append(report.Batches, runReportBatch{
			Seq:        entry.Seq,
			Attempts:   entry.Attempts,
			Draws:      entry.Draws,
			TopCards:   append([]string(nil), entry.TopCards...),
			TopNumbers: append([]int(nil), entry.TopNumbers...),
			Line:       entry.Line(),
		})
	}

	return report
}

func mapDraw(draw session.DrawResult) runReportDraw {
	out := runReportDraw{
		Cards:       make([]runReportCard, 0, len(draw.Cards)),
		Number:      draw.Number,
		RealNumbers: make([]int, 0, len(draw.Cards)),
	}
	for _, card := range draw.Cards {
		out.Cards = append(out.Cards, runReportCard{Key: card.Key, Color: card.Color})
		out.RealNumbers = append(out.RealNumbers, card.RealNumber)
	}
	return out
}

func renderRunOutput(report runReport) string {
	var b strings.Builder
	w := 50

	seed := "crypto/rand"
	if report.Seed != nil {
		seed = strconv.FormatUint(*report.Seed, 10)
	}

	b.WriteString("\n")
	b.WriteString("  ╔" + strings.Repeat("═", w) + "╗\n")
	b.WriteString(fmt.Sprintf("  ║%-*s║\n", w, centerReportText("♠ ♣ ♥ ♦  DRAW SIMULATOR  ♦ ♥ ♣ ♠", w)))
	b.WriteString("  ╠" + strings.Repeat("═", w) + "╣\n")
	b.WriteString(fmt.Sprintf("  ║  Session: %-*s║\n", w-11, report.SessionID))
	b.WriteString(fmt.Sprintf("  ║  Suits:   %-*s║\n", w-11, strings.Join(report.Suits, " ")))
	b.WriteString(fmt.Sprintf("  ║  Seed:    %-*s║\n", w-11, seed))
	b.WriteString(fmt.Sprintf("  ║  Draws:   %-*d║\n", w-11, report.DrawsRequested))
	b.WriteString(fmt.Sprintf("  ║  Batches: %-*s║\n", w-11, fmt.Sprintf("%d x %d", report.BatchesRequested, report.BatchSize)))
	b.WriteString("  ╚" + strings.Repeat("═", w) + "╝\n\n")

	if len(report.Draws) > 0 {
		b.WriteString(renderDrawSection(report.Draws))
	}
	if len(report.Batches) > 0 {
		b.WriteString(renderHistorySection(report.Batches))
	}

	b.WriteString(renderRunCompletion(report))

	return b.String()
}

func renderDrawSection(draws []runReportDraw) string {
	var b strings.Builder
	w := 56

	b.WriteString(fmt.Sprintf("  ┌%s┐\n", strings.Repeat("─", w)))
	b.WriteString(fmt.Sprintf("  │%-*s│\n", w, centerReportText("DRAWS", w)))
	b.WriteString(fmt.Sprintf("  ├%s┤\n", strings.Repeat("─", w)))
	for _, draw := range draws {
		keys := make([]string, len(draw.Cards))
		for i, card := range draw.Cards {
			keys[i] = card.Key
		}
		line := fmt.Sprintf("  Draw: %s | Number: %d", strings.Join(keys, " "), draw.Number)
		b.WriteString(fmt.Sprintf("  │%-*s│\n", w, line))
		b.WriteString(fmt.Sprintf("  │%-*s│\n", w, "  Real Numbers: "+joinInts(draw.RealNumbers, " ")))
	}
	b.WriteString(fmt.Sprintf("  └%s┘\n\n", strings.Repeat("─", w)))
	return b.String()
}

func renderHistorySection(batches []runReportBatch) string {
	var b strings.Builder
	w := 80

	b.WriteString(fmt.Sprintf("  ┌%s┐\n", strings.Repeat("─", w)))
	b.WriteString(fmt.Sprintf("  │%-*s│\n", w, centerReportText("HISTORY", w)))
	b.WriteString(fmt.Sprintf("  ├%s┤\n", strings.Repeat("─", w)))
	for _, batch := range batches {
		b.WriteString(fmt.Sprintf("  │%-*s│\n", w, "  "+batch.Line))
		if batch.Attempts > 1 {
			b.WriteString(fmt.Sprintf("  │%-*s│\n", w, fmt.Sprintf("    re-rolled %d tied batch(es)", batch.Attempts-1)))
		}
	}
	b.WriteString(fmt.Sprintf("  └%s┘\n\n", strings.Repeat("─", w)))
	return b.String()
}

func renderRunCompletion(report runReport) string {
	var b strings.Builder
	w := 50

	topCards := strings.Join(report.TopCards, " ")
	if topCards == "" {
		topCards = "(none)"
	}
	topNumbers := joinInts(report.TopNumbers, ", ")
	if topNumbers == "" {
		topNumbers = "(none)"
	}

	b.WriteString("  ╔" + strings.Repeat("═", w) + "╗\n")
	b.WriteString(fmt.Sprintf("  ║%-*s║\n", w, centerReportText("✓ RUN COMPLETE", w)))
	b.WriteString("  ╠" + strings.Repeat("═", w) + "╣\n")
	b.WriteString(fmt.Sprintf("  ║  Total Draws:     %-*d║\n", w-19, report.TotalDraws))
	b.WriteString(fmt.Sprintf("  ║  Batches Logged:  %-*d║\n", w-19, len(report.Batches)))
	b.WriteString(fmt.Sprintf("  ║  Top Cards:       %-*s║\n", w-19, topCards))
	b.WriteString(fmt.Sprintf("  ║  Top Number(s):   %-*s║\n", w-19, topNumbers))
	b.WriteString("  ╚" + strings.Repeat("═", w) + "╝\n")
	return b.String()
}

func centerReportText(text string, width int) string {
	l := len([]rune(text))
	if l >= width {
		return text
	}
	left := (width - l) / 2
	right := width - l - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

func writeRunReportJSON(path string, report runReport) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
