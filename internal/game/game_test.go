package game

import "testing"

func TestResolveAllPairs(t *testing.T) {
	counts := map[Outcome]int{}
	for _, p := range Choices {
		for _, b := range Choices {
			counts[Resolve(p, b)]++
		}
	}
	if counts[Draw] != 3 || counts[Win] != 3 || counts[Lose] != 3 {
		t.Fatalf("outcomes = %v", counts)
	}
}

func TestResolveBeatsRelation(t *testing.T) {
	cases := []struct {
		player, bot Choice
		want        Outcome
	}{
		{Rock, Scissors, Win},
		{Scissors, Paper, Win},
		{Paper, Rock, Win},
		{Scissors, Rock, Lose},
		{Paper, Scissors, Lose},
		{Rock, Paper, Lose},
		{Paper, Paper, Draw},
	}
	for _, tc := range cases {
		if got := Resolve(tc.player, tc.bot); got != tc.want {
			t.Errorf("Resolve(%s, %s) = %v, want %v", tc.player, tc.bot, got, tc.want)
		}
	}
}

func TestParseChoice(t *testing.T) {
	if c, err := ParseChoice("rock"); err != nil || c != Rock {
		t.Fatalf("ParseChoice(rock) = %v, %v", c, err)
	}
	if _, err := ParseChoice("lizard"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRandomChoiceCoversAll(t *testing.T) {
	seen := map[Choice]bool{}
	for range 300 {
		seen[RandomChoice()] = true
	}
	if len(seen) != 3 {
		t.Fatalf("seen = %v", seen)
	}
}
