package scoring

import "github.com/mcoot/blackjack-go/internal/model"

// Blackjack is the best possible hand value
const Blackjack = 21

// DealerStandsOn is the value at or above which the dealer stops drawing.
// The dealer stands on soft 17 as well.
const DealerStandsOn = 17

// CardValue returns a card's value with aces counted as 11
func CardValue(c model.Card) int {
	switch c.Rank {
	case model.RankAce:
		return 11
	case model.RankJack, model.RankQueen, model.RankKing, model.RankTen:
		return 10
	case model.RankTwo:
		return 2
	case model.RankThree:
		return 3
	case model.RankFour:
		return 4
	case model.RankFive:
		return 5
	case model.RankSix:
		return 6
	case model.RankSeven:
		return 7
	case model.RankEight:
		return 8
	case model.RankNine:
		return 9
	default:
		return 0
	}
}

// evaluate returns the hand total and the number of aces still counted as 11
func evaluate(hand model.Hand) (total, softAces int) {
	for _, c := range hand {
		total += CardValue(c)
		if c.IsAce() {
			softAces++
		}
	}

	// Downgrade one ace at a time, only while still over 21
	for total > Blackjack && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// Value returns the blackjack total of a hand
func Value(hand model.Hand) int {
	total, _ := evaluate(hand)
	return total
}

// IsSoft returns true if at least one ace is still counted as 11
func IsSoft(hand model.Hand) bool {
	_, softAces := evaluate(hand)
	return softAces > 0
}

// IsBust returns true if the hand exceeds 21
func IsBust(hand model.Hand) bool {
	return Value(hand) > Blackjack
}

// IsBlackjack returns true for a two-card 21
func IsBlackjack(hand model.Hand) bool {
	return len(hand) == 2 && Value(hand) == Blackjack
}

// DealerShouldDraw returns true while the dealer's hand is below 17
func DealerShouldDraw(hand model.Hand) bool {
	return Value(hand) < DealerStandsOn
}

// DetermineOutcome decides the round from the two final totals.
// A player total over 21 always loses regardless of the dealer.
func DetermineOutcome(playerValue, dealerValue int) model.Outcome {
	switch {
	case playerValue > Blackjack:
		return model.OutcomeLose
	case dealerValue > Blackjack:
		return model.OutcomeWin
	case playerValue > dealerValue:
		return model.OutcomeWin
	case dealerValue > playerValue:
		return model.OutcomeLose
	default:
		return model.OutcomeTie
	}
}
