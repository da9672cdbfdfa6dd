package genai

import (
	"fmt"
	"unicode/utf8"
)

// Stage selects the hint-progression prompt template and output budget.
type Stage int

const (
	// StageFirst is the initial, deliberately terse hint (<= 100 chars).
	StageFirst Stage = iota
	// StageSecond is the follow-up explanation (<= 200 words).
	StageSecond
	// StageResources is the categorized learning-resources generation.
	StageResources
)

// String returns the stage name used in logs and metrics labels.
func (s Stage) String() string {
	switch s {
	case StageFirst:
		return "first"
	case StageSecond:
		return "second"
	case StageResources:
		return "resources"
	default:
		return "unknown"
	}
}

// Stage instructions. The budgets they state are reinforced by deterministic
// trimming (see trim.go); the instruction alone is only a suggestion to the
// model.
const (
	firstHintInstruction = "You are a homework helper that only provides small hints, not full solutions. " +
		"Give a brief, subtle hint that points the student in the right direction without revealing too much. " +
		"Your hint MUST be UNDER 100 CHARACTERS total - be very concise and brief."

	secondHintInstruction = "You are a homework helper providing a follow-up hint. Since this is the second hint, " +
		"provide a more detailed explanation that helps the student understand the core concepts needed to solve " +
		"the problem, but still leave the final solution for them to discover. Your hint MUST be UNDER 200 WORDS."

	// latexDirective is appended to every hint prompt so responses render
	// correctly in math-aware clients.
	latexDirective = "When your answer includes mathematical expressions or equations, use proper LaTeX formatting " +
		"with $ for inline math and $$ for display math. Make your response visually clear and well-formatted."

	firstHintClosing = "Please give me a very small, subtle hint (under 100 characters) that will guide me in the " +
		"right direction without revealing too much."

	secondHintClosing = "This is my second hint request, so please provide more guidance than before (under 200 words), " +
		"but still let me solve it on my own."
)

// resourcesPromptTemplate asks for a machine-parseable resource list. The
// decoder in parse.go is strict; anything that does not decode falls back to
// the deterministic keyword set.
const resourcesPromptTemplate = `You are an expert educational resource finder for students.

The student has asked this SPECIFIC homework question: %q

Your task: find 5-7 educational resources that will help THIS SPECIFIC STUDENT solve THIS EXACT PROBLEM.

IMPORTANT INSTRUCTIONS:
1. Analyze the specific topics and concepts in the question.
2. For EACH specific concept, find 1-2 educational resources that teach exactly that concept.
3. Each resource MUST directly address a concept needed to solve this exact problem.
4. DO NOT provide general educational websites - every resource must be concept-specific.
5. For each resource, explain EXACTLY how it helps solve this specific homework problem.

Respond with ONLY a JSON array, no prose and no code fences, in this exact shape:
[{"topic": "Concept name", "links": [{"title": "Resource title", "url": "https://...", "snippet": "How it helps"}]}]`

// BuildHintPrompt assembles the enhanced prompt for a hint stage:
// stage instruction, the problem statement, the LaTeX formatting directive,
// and the stage-specific closing request.
func BuildHintPrompt(stage Stage, problem string) string {
	switch stage {
	case StageFirst:
		return firstHintInstruction + "\n\nProblem: " + problem + "\n\n" +
			latexDirective + "\n\n" + firstHintClosing
	default:
		return secondHintInstruction + "\n\nOriginal Problem: " + problem + "\n\n" +
			latexDirective + "\n\n" + secondHintClosing
	}
}

// BuildResourcesPrompt assembles the resource-generation prompt. The question
// is capped in runes to keep the prompt bounded for very long submissions
// without splitting a multi-byte character.
func BuildResourcesPrompt(problem string) string {
	const maxQuestionRunes = 500
	if utf8.RuneCountInString(problem) > maxQuestionRunes {
		problem = string([]rune(problem)[:maxQuestionRunes])
	}
	return fmt.Sprintf(resourcesPromptTemplate, problem)
}
