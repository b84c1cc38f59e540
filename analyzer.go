package smartrouter

import (
	"math"
	"regexp"
	"strings"
)

// Keyword tables for task classification. Matching is case-insensitive
// substring search over the lowered query text.
var (
	taskOrder = []TaskType{TaskCode, TaskQA, TaskCreative, TaskAnalysis}

	taskKeywords = map[TaskType][]string{
		TaskCode: {
			"code", "function", "implement", "algorithm", "debug", "fix",
			"compile", "syntax", "script",
			"python", "javascript", "java", "c++", "sql", "programming",
		},
		TaskQA: {
			"what is", "what are", "who is", "who are", "when is", "when was",
			"where is", "define", "definition of", "meaning of",
			"yes or no", "true or false",
			"summarize", "summary of", "tldr", "key points",
		},
		TaskCreative: {
			"write a story", "poem", "creative", "imagine", "fictional",
			"brainstorm", "ideas for", "suggestions for",
		},
		TaskAnalysis: {
			"analyze", "analysis", "compare", "contrast", "evaluate",
			"pros and cons", "advantages", "disadvantages", "implications",
			"explain why", "reasoning", "step by step",
			"calculate", "solve", "equation", "derivative", "probability",
		},
	}
)

// Complexity contribution per task type, already weighted.
var taskTerms = map[TaskType]float64{
	TaskCode:     0.32,
	TaskAnalysis: 0.28,
	TaskCreative: 0.24,
	TaskQA:       0.04,
	TaskOther:    0.20,
}

// Expected output length as a multiple of input tokens, per task type.
var outputMultipliers = map[TaskType]float64{
	TaskCode:     2.5,
	TaskAnalysis: 2.0,
	TaskCreative: 3.0,
	TaskQA:       0.5,
	TaskOther:    1.0,
}

var enumerationRe = regexp.MustCompile(`(?m)^\s*(?:[-*]|\d+[.)])\s`)

// Analyzer derives routing features from raw query text. Analysis is a pure
// function of the text: no I/O, no randomness, identical input always yields
// an identical Query.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze classifies the query and scores its complexity in [0,1].
// Empty or whitespace-only input yields a zero score and TaskOther.
func (a *Analyzer) Analyze(raw string) Query {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Query{Raw: raw, TaskType: TaskOther}
	}

	lower := strings.ToLower(trimmed)
	words := strings.Fields(lower)
	tokens := CountTokens(trimmed)
	taskType := classifyTask(lower)

	// Weighted terms: token length, vocabulary richness, task type, and
	// structural signals. Each term is individually capped.
	tokenTerm := math.Min(float64(tokens)/500, 1) * 0.2
	vocabTerm := distinctRatio(words) * 0.2
	taskTerm := taskTerms[taskType]

	var structTerm float64
	if strings.Contains(trimmed, "```") {
		structTerm += 0.10
	}
	if enumerationRe.MatchString(trimmed) {
		structTerm += 0.05
	}
	if strings.Count(trimmed, "?") >= 2 {
		structTerm += 0.05
	}

	score := tokenTerm + vocabTerm + taskTerm + structTerm
	if score > 1 {
		score = 1
	}

	return Query{
		Raw:             raw,
		TaskType:        taskType,
		Complexity:      score,
		Tokens:          tokens,
		Words:           len(words),
		EstimatedOutput: int64(float64(tokens) * outputMultipliers[taskType]),
	}
}

// classifyTask picks the keyword category with the most hits. No hits or a
// tie between categories resolves to TaskOther.
func classifyTask(lower string) TaskType {
	best := TaskOther
	bestHits := 0
	tied := false

	for _, tt := range taskOrder {
		hits := 0
		for _, kw := range taskKeywords[tt] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		switch {
		case hits > bestHits:
			best, bestHits, tied = tt, hits, false
		case hits == bestHits && hits > 0:
			tied = true
		}
	}

	if bestHits == 0 || tied {
		return TaskOther
	}
	return best
}

func distinctRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}
