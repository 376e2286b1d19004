package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/matzehuels/updatecheck/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", fmt.Errorf("check: %w", context.Canceled), exitInterrupted},
		{"invalid ecosystem", apperrors.New(apperrors.ErrCodeInvalidEcosystem, "unknown ecosystem"), exitUsage},
		{"registry", apperrors.New(apperrors.ErrCodeRegistryUnavailable, "down"), exitFailure},
		{"plain", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
