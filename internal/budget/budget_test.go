package budget

import "testing"

func TestEstimateTokensFromChars(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 1},
		{5, 2},
		{400, 100},
	}
	for _, c := range cases {
		got := EstimateTokensFromChars(c.in)
		if got != c.want {
			t.Fatalf("EstimateTokensFromChars(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	// sys(6)->2, user(12)->3
	if got := EstimatePromptTokens("system", "user message"); got != 5 {
		t.Fatalf("EstimatePromptTokens() = %d, want 5", got)
	}
}

func TestModelContextTokens(t *testing.T) {
	if ModelContextTokens("") != 8192 {
		t.Fatal("empty model should default to 8192")
	}
	if ModelContextTokens("GPT-4o") != 128_000 {
		t.Fatal("case-insensitive match for gpt-4o should be 128k")
	}
	if ModelContextTokens("claude-sonnet-4-0") != 200_000 {
		t.Fatal("claude models should map to 200k")
	}
	if ModelContextTokens("mystery-model") != 8192 {
		t.Fatal("unknown model should default to 8192")
	}
}

func TestRemainingAndFits(t *testing.T) {
	model := "gpt-4o"
	max := ModelContextTokens(model)
	if rem := RemainingContext(model, 800, max/2); rem <= 0 {
		t.Fatalf("remaining should be positive, got %d", rem)
	}
	if !FitsInContext(model, 800, max/2) {
		t.Fatal("half-context prompt should fit")
	}
	if rem := RemainingContext(model, 1, max); rem != 0 {
		t.Fatalf("remaining should clamp at 0 on overflow, got %d", rem)
	}
	if FitsInContext(model, 800, max-HeadroomTokens(model)-800) {
		t.Fatal("prompt consuming the headroom should not fit")
	}
}

func TestHeadroomTokens(t *testing.T) {
	if HeadroomTokens("gpt-4o") != 6400 {
		t.Fatalf("gpt-4o headroom = %d, want 6400", HeadroomTokens("gpt-4o"))
	}
	// 5% of 8192 is 410, below the 512 floor
	if HeadroomTokens("") != 512 {
		t.Fatal("default model headroom should floor to 512")
	}
}
