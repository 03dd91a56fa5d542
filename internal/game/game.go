// Package game implements rock-paper-scissors.
package game

import (
	"fmt"
	"math/rand/v2"
)

// Choice is a rock-paper-scissors move.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices lists every move in button order.
var Choices = []Choice{Rock, Paper, Scissors}

// Outcome is the result from the player's point of view.
type Outcome int

const (
	Draw Outcome = iota
	Win
	Lose
)

var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

var emoji = map[Choice]string{
	Rock:     "🪨",
	Paper:    "📄",
	Scissors: "✂️",
}

// ParseChoice validates a move name.
func ParseChoice(s string) (Choice, error) {
	c := Choice(s)
	if _, ok := beats[c]; !ok {
		return "", fmt.Errorf("game: unknown choice %q", s)
	}
	return c, nil
}

// Emoji returns the button glyph for c.
func (c Choice) Emoji() string { return emoji[c] }

// Resolve decides the round for the player.
func Resolve(player, bot Choice) Outcome {
	switch {
	case player == bot:
		return Draw
	case beats[player] == bot:
		return Win
	default:
		return Lose
	}
}

// RandomChoice picks uniformly among Choices.
func RandomChoice() Choice {
	return Choices[rand.IntN(len(Choices))]
}
