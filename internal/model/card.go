package model

// Rank is the face of a card. Suit never affects valuation.
type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

// Ranks lists every rank in deck order
var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

// Suit is display-only
type Suit string

const (
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
	SuitSpades   Suit = "S"
)

// Suits lists the four suits of a standard deck
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// DeckSize is the number of cards in one standard deck
const DeckSize = 52

// Card is a single playing card, immutable once drawn
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit,omitempty"`
}

// String returns the card as rank followed by suit, e.g. "10H"
func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

// IsAce returns true for aces
func (c Card) IsAce() bool {
	return c.Rank == RankAce
}

// IsValidRank returns true if r is one of the 13 ranks
func IsValidRank(r Rank) bool {
	for _, rank := range Ranks {
		if rank == r {
			return true
		}
	}
	return false
}

// Hand is the ordered set of cards held by the player or the dealer
type Hand []Card

// Add appends a drawn card
func (h *Hand) Add(c Card) {
	*h = append(*h, c)
}

// Len returns the number of cards held
func (h Hand) Len() int {
	return len(h)
}
