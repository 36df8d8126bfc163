// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONFIDENCE
// =============================================================================

// Confidence classifies how strongly a retrieval result supports the answer.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// Known reports whether c carries an actual classification.
func (c Confidence) Known() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// AggregateConfidence derives a single confidence label for a whole answer
// from its per-source confidences:
//
//   - high when at least half of the sources with a known confidence are high
//   - otherwise medium when any source is medium
//   - otherwise low
//   - unknown when no source carries a known confidence
//
// The aggregate is never stored; it is recomputed on demand so it cannot
// drift from the underlying source list.
func AggregateConfidence(sources []Source) Confidence {
	known := 0
	high := 0
	medium := 0

	for _, s := range sources {
		if !s.Confidence.Known() {
			continue
		}
		known++
		switch s.Confidence {
		case ConfidenceHigh:
			high++
		case ConfidenceMedium:
			medium++
		}
	}

	if known == 0 {
		return ConfidenceUnknown
	}
	if high*2 >= known {
		return ConfidenceHigh
	}
	if medium > 0 {
		return ConfidenceMedium
	}
	return ConfidenceLow
}
