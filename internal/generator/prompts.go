package generator

import (
	"fmt"
	"math"
	"strconv"

	"architect/internal/scoring"
)

func evaluatePrompt(idea, goal string, w scoring.Weights, threshold float64) string {
	return fmt.Sprintf(`Evaluate the following idea based on the goal.
Goal: %s
Idea: %s

Criteria weights: Alignment(%s%%), Feasibility(%s%%), Impact(%s%%), Novelty(%s%%).
Return a score between 0 and 1 for each.
A total score >= %s is a START, otherwise STOP.`,
		goal, idea,
		percent(w.Alignment), percent(w.Feasibility), percent(w.Impact), percent(w.Novelty),
		strconv.FormatFloat(threshold, 'f', -1, 64))
}

func variantsPrompt(constraints string, count int) string {
	if count <= 0 {
		return fmt.Sprintf("Generate high-performance content variants based on these constraints: %s. Ensure high hook efficiency.", constraints)
	}
	return fmt.Sprintf("Generate %d high-performance content variants based on these constraints: %s. Ensure high hook efficiency.", count, constraints)
}

func briefPrompt(idea string) string {
	return "Convert this approved idea into a professional production brief: " + idea
}

func percent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/100, 'f', -1, 64)
}
