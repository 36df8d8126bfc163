// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func src(c Confidence) Source {
	return Source{Filename: "doc.pdf", Confidence: c}
}

func TestAggregateConfidence(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
		want    Confidence
	}{
		{"no sources", nil, ConfidenceUnknown},
		{"only unknown", []Source{src(ConfidenceUnknown)}, ConfidenceUnknown},
		{"no classification at all", []Source{{Filename: "a.pdf"}}, ConfidenceUnknown},
		{"majority high", []Source{src(ConfidenceHigh), src(ConfidenceHigh), src(ConfidenceLow)}, ConfidenceHigh},
		{"exactly half high", []Source{src(ConfidenceHigh), src(ConfidenceLow)}, ConfidenceHigh},
		{"medium wins over low", []Source{src(ConfidenceLow), src(ConfidenceMedium)}, ConfidenceMedium},
		{"all low", []Source{src(ConfidenceLow), src(ConfidenceLow)}, ConfidenceLow},
		{"unknowns do not dilute", []Source{src(ConfidenceHigh), src(ConfidenceUnknown), src(ConfidenceUnknown)}, ConfidenceHigh},
		{"single medium", []Source{src(ConfidenceMedium)}, ConfidenceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateConfidence(tt.sources)
			if got != tt.want {
				t.Errorf("AggregateConfidence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfidenceKnown(t *testing.T) {
	if ConfidenceUnknown.Known() {
		t.Error("unknown should not be known")
	}
	if Confidence("").Known() {
		t.Error("empty should not be known")
	}
	for _, c := range []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow} {
		if !c.Known() {
			t.Errorf("%q should be known", c)
		}
	}
}
