package devserver

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"sekata-go/internal/config"
	"sekata-go/internal/game"
	"sekata-go/internal/models"
	"sekata-go/internal/preview"
)

// Rules configures new tables.
type Rules struct {
	HandSize    int
	MinPlayers  int
	HelperCards int

	// Ordered keeps deck and seat order as dealt. Tests only.
	Ordered bool
}

func DefaultRules() Rules {
	return Rules{
		HandSize:    config.DefaultHandSize,
		MinPlayers:  config.DefaultMinPlayers,
		HelperCards: config.DefaultHelperCards,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.HandSize <= 0 {
		r.HandSize = d.HandSize
	}
	if r.MinPlayers <= 0 {
		r.MinPlayers = d.MinPlayers
	}
	if r.HelperCards < 0 {
		r.HelperCards = 0
	}
	return r
}

type seat struct {
	hand  []game.Card
	score int
}

// Table is the authoritative state of one game. It is not safe for
// concurrent use; Manager serialises access.
type Table struct {
	id    string
	host  string
	rules Rules

	seats   map[string]*seat
	order   []string
	turnIdx int

	deck        *Deck
	discard     []game.Card
	onTable     game.Card
	helpers     []game.Card
	usedHelpers []game.Card

	started    bool
	checkCount int
	winner     string
}

// Outcome describes what a submit or check did.
type Outcome struct {
	TableBefore string
	TableAfter  string
	FormedWord  string
	Score       int
	Winner      string
}

func NewTable(id, hostID string, rules Rules) *Table {
	rules = rules.withDefaults()
	shuffle := ShuffleFunc(Shuffle[game.Card])
	if rules.Ordered {
		shuffle = NoShuffle
	}
	return &Table{
		id:    id,
		host:  hostID,
		rules: rules,
		seats: map[string]*seat{hostID: {}},
		order: []string{hostID},
		deck:  NewDeck(Fragments(), shuffle),
	}
}

func (t *Table) IsPlayer(playerID string) bool {
	_, ok := t.seats[playerID]
	return ok
}

func (t *Table) Join(playerID string) error {
	switch {
	case t.winner != "":
		return models.ErrGameOver
	case t.started:
		return models.ErrAlreadyStarted
	case t.IsPlayer(playerID):
		return fmt.Errorf("%s: %w", playerID, models.ErrPlayerExists)
	}
	t.seats[playerID] = &seat{}
	t.order = append(t.order, playerID)
	return nil
}

// Start deals hands, lays out the helper pool and opens the table word.
func (t *Table) Start(playerID string) error {
	switch {
	case !t.IsPlayer(playerID):
		return models.ErrNotAPlayer
	case playerID != t.host:
		return models.ErrNotHost
	case t.started || t.winner != "":
		return models.ErrAlreadyStarted
	case len(t.order) < t.rules.MinPlayers:
		return fmt.Errorf("need %d, have %d: %w", t.rules.MinPlayers, len(t.order), models.ErrNotEnoughPlayers)
	}

	if !t.rules.Ordered {
		Shuffle(t.order)
	}
	for _, id := range t.order {
		t.seats[id].hand = t.deck.DrawN(t.rules.HandSize)
	}
	t.helpers = t.deck.DrawN(t.rules.HelperCards)
	c, ok := t.deck.Draw()
	if !ok {
		return models.ErrEmptyDeck
	}
	t.onTable = c
	t.turnIdx = 0
	t.started = true
	return nil
}

func (t *Table) current() string {
	if !t.started || len(t.order) == 0 {
		return ""
	}
	return t.order[t.turnIdx]
}

func (t *Table) mayAct(playerID string) error {
	switch {
	case !t.IsPlayer(playerID):
		return models.ErrNotAPlayer
	case t.winner != "":
		return models.ErrGameOver
	case !t.started:
		return models.ErrNotStarted
	case t.current() != playerID:
		return models.ErrNotYourTurn
	}
	return nil
}

// Submit plays exactly one hand card and at most one helper card against the
// table word. The hand card becomes the next table word.
func (t *Table) Submit(playerID string, moves []game.Move) (Outcome, error) {
	if err := t.mayAct(playerID); err != nil {
		return Outcome{}, err
	}
	hand, helper, err := splitMoves(moves)
	if err != nil {
		return Outcome{}, err
	}
	s := t.seats[playerID]
	idx := slices.Index(s.hand, hand.Card)
	if idx < 0 {
		return Outcome{}, fmt.Errorf("%s: %w", hand.Card, models.ErrCardNotInHand)
	}
	if helper != nil && !t.helperAvailable(helper.Card) {
		return Outcome{}, fmt.Errorf("%s: %w", helper.Card, models.ErrHelperNotFound)
	}

	out := Outcome{TableBefore: string(t.onTable)}
	out.FormedWord = preview.Build(string(t.onTable), moves).Word
	out.Score = utf8.RuneCountInString(out.FormedWord)

	s.hand = slices.Delete(s.hand, idx, idx+1)
	s.score += out.Score
	if helper != nil {
		t.usedHelpers = append(t.usedHelpers, helper.Card)
	}
	t.discard = append(t.discard, t.onTable)
	t.onTable = hand.Card
	out.TableAfter = string(t.onTable)

	if len(s.hand) == 0 {
		t.finish(playerID)
		out.Winner = playerID
		return out, nil
	}
	t.advance(false)
	return out, nil
}

// Check passes the turn. When every player has checked in a row the table
// word is replaced from the deck.
func (t *Table) Check(playerID string) (Outcome, error) {
	if err := t.mayAct(playerID); err != nil {
		return Outcome{}, err
	}
	out := Outcome{TableBefore: string(t.onTable)}
	t.advance(true)
	out.TableAfter = string(t.onTable)
	out.Winner = t.winner
	return out, nil
}

func splitMoves(moves []game.Move) (hand game.Move, helper *game.Move, err error) {
	if len(moves) == 0 {
		return game.Move{}, nil, models.ErrNoMoves
	}
	hands := 0
	for i, m := range moves {
		if m.Card == "" || !m.Kind.Valid() || !m.Position.Valid() {
			return game.Move{}, nil, fmt.Errorf("move %d: %w", i, models.ErrInvalidMove)
		}
		switch m.Kind {
		case game.KindHand:
			hands++
			hand = m
		case game.KindHelper:
			if helper != nil {
				return game.Move{}, nil, models.ErrTooManyMoves
			}
			helper = &moves[i]
		}
	}
	switch {
	case hands == 0:
		return game.Move{}, nil, models.ErrNoHandMove
	case hands > 1:
		return game.Move{}, nil, models.ErrTooManyMoves
	}
	return hand, helper, nil
}

func (t *Table) helperAvailable(c game.Card) bool {
	return slices.Contains(t.helpers, c) && !slices.Contains(t.usedHelpers, c)
}

func (t *Table) advance(checked bool) {
	if checked {
		t.checkCount++
		if t.checkCount >= len(t.order) {
			t.checkCount = 0
			t.redraw()
			if t.winner != "" {
				return
			}
		}
	} else {
		t.checkCount = 0
	}
	t.turnIdx = (t.turnIdx + 1) % len(t.order)
}

// redraw discards the table word and draws a new one, recycling the discard
// pile when the deck runs out. With nothing left to draw the current player wins.
func (t *Table) redraw() {
	if t.onTable != "" {
		t.discard = append(t.discard, t.onTable)
	}
	c, ok := t.deck.Draw()
	if !ok && len(t.discard) > 0 {
		t.deck.Refill(t.discard)
		t.discard = nil
		c, ok = t.deck.Draw()
	}
	if !ok {
		t.onTable = ""
		t.finish(t.current())
		return
	}
	t.onTable = c
}

func (t *Table) finish(winner string) {
	t.winner = winner
	t.started = false
}

// Scores returns every player's score.
func (t *Table) Scores() map[string]int {
	out := make(map[string]int, len(t.seats))
	for id, s := range t.seats {
		out[id] = s.score
	}
	return out
}

// View renders the table for viewerID. Only the viewer's own hand is revealed.
func (t *Table) View(viewerID string) (*game.Snapshot, error) {
	if !t.IsPlayer(viewerID) {
		return nil, models.ErrNotAPlayer
	}
	players := make(map[string]game.PlayerView, len(t.seats))
	for id, s := range t.seats {
		v := game.PlayerView{HandSize: len(s.hand), Score: s.score, Hand: []game.Card{}}
		if id == viewerID {
			v.Hand = slices.Clone(s.hand)
		}
		players[id] = v
	}
	return &game.Snapshot{
		GameID:              t.id,
		HostID:              t.host,
		CurrentTurn:         t.current(),
		GameStarted:         t.started,
		CardOnTable:         string(t.onTable),
		Players:             players,
		HelperCards:         slices.Clone(t.helpers),
		UsedHelperCards:     slices.Clone(t.usedHelpers),
		Winner:              t.winner,
		MainDeckCount:       t.deck.Len(),
		CheckCount:          t.checkCount,
		MinPlayersToStart:   t.rules.MinPlayers,
		CurrentPlayersCount: len(t.seats),
	}, nil
}
