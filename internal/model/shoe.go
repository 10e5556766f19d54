package model

// Shoe is the pooled set of cards drawn from during play.
// Cards are drawn from the front and never replaced until a full reshuffle.
type Shoe struct {
	Decks int    `json:"decks"`
	Cards []Card `json:"cards"`
}

// Draw removes and returns the front card
func (s *Shoe) Draw() (Card, error) {
	if s == nil || len(s.Cards) == 0 {
		return Card{}, ErrShoeExhausted
	}
	card := s.Cards[0]
	s.Cards = s.Cards[1:]
	return card, nil
}

// Remaining returns the number of undrawn cards
func (s *Shoe) Remaining() int {
	if s == nil {
		return 0
	}
	return len(s.Cards)
}

// Clone returns a deep copy of the shoe
func (s *Shoe) Clone() *Shoe {
	if s == nil {
		return nil
	}
	return &Shoe{Decks: s.Decks, Cards: append([]Card(nil), s.Cards...)}
}
