package relevance

import "itnews-radar/internal/domain/entity"

// Aggregate sets FinalScore to the stronger of the two signals.
//
// The signals represent distinct kinds of evidence; averaging them would
// dilute an unambiguous match from either one. A lexical score of 1.0 always
// yields a final score of 1.0, and so does a semantic score of 1.0. This is
// the only place in the codebase where the final score is derived.
func Aggregate(b entity.ScoreBreakdown) entity.ScoreBreakdown {
	b.LexicalScore = entity.ClampScore(b.LexicalScore)
	b.SemanticScore = entity.ClampScore(b.SemanticScore)
	b.FinalScore = max(b.LexicalScore, b.SemanticScore)
	return b
}

// Admit reports whether a breakdown passes the relevance gate.
// The comparison is inclusive: a final score equal to the threshold is admitted,
// so a threshold of 0 admits everything and a threshold of 1 admits only perfect matches.
func Admit(b entity.ScoreBreakdown, threshold float64) bool {
	return b.FinalScore >= threshold
}
