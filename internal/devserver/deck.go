package devserver

import (
	"crypto/rand"
	"math/big"
	"time"

	"sekata-go/internal/game"
)

var fragments = []game.Card{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N",
	"O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	"AN", "AS", "AR", "AH", "BA", "BE", "BI", "BO", "BU", "CA", "CE", "CI",
	"CO", "CU", "DA", "DE", "DI", "DO", "DU", "GA", "GE", "GI", "GO", "GU",
	"KA", "KE", "KI", "KO", "KU", "LA", "LE", "LI", "LO", "LU", "MA", "ME",
	"MI", "MO", "MU", "NA", "NE", "NI", "NO", "NU", "PA", "PE", "PI", "PO",
	"PU", "RA", "RE", "RI", "RO", "RU", "SA", "SE", "SI", "SO", "SU", "TA",
	"TE", "TI", "TO", "TU", "VA", "VE", "VI", "VO", "VU", "WA", "WE", "WI",
	"WO", "WU", "YA", "YE", "YI", "YO", "YU", "ZA", "ZE", "ZI", "ZO", "ZU",
	"NG", "NY", "SY", "KH", "GH", "CH", "PH", "SH", "TH", "TS", "NS", "PS",
	"AK", "AL", "AM", "AT", "AP", "ER", "ET", "IK", "IL", "IM", "IN", "IP",
	"IR", "IS", "IT", "OK", "OL", "OM", "ON", "OP", "OR", "OS", "OT", "UK",
	"UL", "UM", "UN", "UP", "UR", "US", "UT",
	"DAN", "YANG", "DARI", "PADA", "SAAT", "SUDAH", "BELUM", "AGAR", "OLEH",
	"UNTUK", "AKU", "KAMU", "KITA", "MEREKA", "DIA", "INI", "ITU", "SANA",
	"SINI", "BEGITU", "DEMIKIAN", "JUGA", "TAPI", "ATAU", "KARENA", "SEBAB",
	"MESKIPUN", "SEMENTARA", "SETELAH", "SEBELUM", "KEMUDIAN", "LALU", "KINI",
	"NANTI", "ADA", "ADALAH", "AKAN", "TELAH", "HARUS", "BOLEH", "DAPAT",
	"BISA", "TIDAK", "BUKAN", "SANGAT", "TERLALU", "KURANG", "LEBIH", "PALING",
	"SERING", "JARANG", "SELALU", "PERNAH", "LAGI", "MASIH", "BARU", "LAMA",
	"SEMPIT", "LUAS",
}

// Fragments returns a fresh copy of the full fragment set.
func Fragments() []game.Card {
	return append([]game.Card(nil), fragments...)
}

// ShuffleFunc permutes cards in place.
type ShuffleFunc func(cards []game.Card)

// Deck is a draw pile. Cards are drawn from the end.
type Deck struct {
	cards   []game.Card
	shuffle ShuffleFunc
}

func NewDeck(cards []game.Card, shuffle ShuffleFunc) *Deck {
	if shuffle == nil {
		shuffle = Shuffle[game.Card]
	}
	d := &Deck{cards: append([]game.Card(nil), cards...), shuffle: shuffle}
	d.shuffle(d.cards)
	return d
}

func (d *Deck) Len() int { return len(d.cards) }

// Draw returns false when the deck is empty.
func (d *Deck) Draw() (game.Card, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

// DrawN draws up to n cards.
func (d *Deck) DrawN(n int) []game.Card {
	out := make([]game.Card, 0, n)
	for i := 0; i < n; i++ {
		c, ok := d.Draw()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

// Refill puts cards back and shuffles the whole deck.
func (d *Deck) Refill(cards []game.Card) {
	d.cards = append(d.cards, cards...)
	d.shuffle(d.cards)
}

// Shuffle is a crypto-secure Fisher-Yates shuffle.
func Shuffle[T any](s []T) {
	for i := len(s) - 1; i > 0; i-- {
		nBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			fallbackShuffle(s)
			return
		}
		j := int(nBig.Int64())
		s[i], s[j] = s[j], s[i]
	}
}

// fallbackShuffle is only used if crypto/rand fails.
func fallbackShuffle[T any](s []T) {
	seed := time.Now().UnixNano()
	for i := len(s) - 1; i > 0; i-- {
		seed = (seed*6364136223846793005 + 1) & 0x7fffffffffffffff
		j := int(seed % int64(i+1))
		s[i], s[j] = s[j], s[i]
	}
}

// NoShuffle keeps the deck order.
func NoShuffle([]game.Card) {}
