// main_test.go

package main

import (
	"strings"
	"testing"
)

func TestStatsSummary(t *testing.T) {
	stats := LatencyStats{
		CallbackCount:  187,
		MinIntervalUS:  10_200,
		MaxIntervalUS:  11_450,
		MeanIntervalUS: 10_666.7,
		Classification: CLASS_BORDERLINE,
	}
	got := statsSummary(stats)
	want := "callbacks=187 mean=10667us jitter=1250us class=Borderline"
	if got != want {
		t.Errorf("statsSummary = %q, want %q", got, want)
	}
	if strings.Contains(got, "%!") {
		t.Errorf("statsSummary leaked a bad format verb: %q", got)
	}
}
