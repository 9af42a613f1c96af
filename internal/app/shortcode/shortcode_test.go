package shortcode

import (
	"context"
	"strings"
	"testing"
)

type checkerFunc func(ctx context.Context, code string) (bool, error)

func (f checkerFunc) CodeInUse(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		wantLength int
	}{
		{
			name:       "TestGenerateDefaultLength",
			wantLength: DefaultLength,
		},
		{
			name:       "TestGenerateSmallValue",
			wantLength: 3,
		},
		{
			name:       "TestGenerateBigValue",
			wantLength: 17,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.wantLength)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(got) != tt.wantLength {
				t.Errorf("Generate() = %v, want length %v", got, tt.wantLength)
			}
			for _, c := range got {
				if !strings.ContainsRune(alphabet, c) {
					t.Errorf("Generate() produced character %q outside alphabet", c)
				}
			}
		})
	}
}

func TestGenerateUnique_FirstAttempt(t *testing.T) {
	calls := 0
	checker := checkerFunc(func(ctx context.Context, code string) (bool, error) {
		calls++
		return false, nil
	})

	code, err := GenerateUnique(context.Background(), checker, DefaultLength)
	if err != nil {
		t.Fatalf("GenerateUnique() error = %v", err)
	}
	if len(code) != DefaultLength {
		t.Errorf("GenerateUnique() = %v, want length %v", code, DefaultLength)
	}
	if calls != 1 {
		t.Errorf("expected 1 uniqueness check, got %d", calls)
	}
}

func TestGenerateUnique_Exhausted(t *testing.T) {
	calls := 0
	checker := checkerFunc(func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})

	code, err := GenerateUnique(context.Background(), checker, DefaultLength)
	if err != nil {
		t.Fatalf("GenerateUnique() error = %v", err)
	}
	if len(code) != DefaultLength+2 {
		t.Errorf("after exhausted attempts expected length %d, got %d", DefaultLength+2, len(code))
	}
	if calls != maxAttempts {
		t.Errorf("expected %d uniqueness checks, got %d", maxAttempts, calls)
	}
}
