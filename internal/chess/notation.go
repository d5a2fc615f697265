package chess

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadSquare = errors.New("malformed square")

// ParseSquare converts coordinate notation such as "e2" to a Square.
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return Square{Row: 8 - int(rank-'0'), Col: int(file - 'a')}, nil
}

// ParseMove reads a "from to" pair such as "e2 e4".
func ParseMove(s string) (Square, Square, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Square{}, Square{}, fmt.Errorf("%w: expected two squares, got %q", ErrBadSquare, s)
	}
	from, err := ParseSquare(fields[0])
	if err != nil {
		return Square{}, Square{}, err
	}
	to, err := ParseSquare(fields[1])
	if err != nil {
		return Square{}, Square{}, err
	}
	return from, to, nil
}

func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

// MarshalText renders the square in coordinate notation.
func (s Square) MarshalText() ([]byte, error) {
	if !InBounds(s) {
		return nil, fmt.Errorf("%w: %d,%d", ErrOutOfBounds, s.Row, s.Col)
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(text []byte) error {
	sq, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func ParseKind(s string) (Kind, error) {
	for k := Pawn; k <= King; k++ {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return Pawn, fmt.Errorf("unknown piece kind %q", s)
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
