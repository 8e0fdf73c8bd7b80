package game

import "github.com/lox/pokerforbots/poker"

// Player tracks one seat's mutable state across a single hand. It carries no
// behavior of its own; HandState and BettingRound mutate it directly.
type Player struct {
	Seat      int
	Name      string
	Chips     int
	Bet       int // chips committed this street, not yet collected into a pot
	TotalBet  int // chips committed across the whole hand
	Folded    bool
	AllInFlag bool
	HoleCards poker.Hand
}
