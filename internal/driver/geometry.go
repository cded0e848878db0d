package driver

import "strings"

// Geometry is the parsed form of an X geometry specification,
// "[=][<width>x<height>][{+-}<xoffset>{+-}<yoffset>]". The Set flags record
// which fields the specification actually carried; callers apply their own
// defaults for the rest.
type Geometry struct {
	X, Y          int
	Width, Height uint

	XSet, YSet           bool
	WidthSet, HeightSet  bool
	XNegative, YNegative bool
}

// ParseGeometry parses spec. Malformed trailing input is ignored; fields
// parsed up to that point keep their Set flags, everything after is
// defaulted. This matches the permissive behavior of XParseGeometry.
// Numeric values are clamped to 65535: geometry fields are CARD16 on the
// wire, so larger values could never reach the server intact.
func ParseGeometry(spec string) Geometry {
	var g Geometry
	s := strings.TrimPrefix(strings.TrimSpace(spec), "=")
	if s == "" {
		return g
	}

	if s[0] != '+' && s[0] != '-' {
		w, rest, ok := parseNum(s)
		if !ok || rest == "" || (rest[0] != 'x' && rest[0] != 'X') {
			return g
		}
		h, rest2, ok := parseNum(rest[1:])
		if !ok {
			return g
		}
		g.Width, g.Height = w, h
		g.WidthSet, g.HeightSet = true, true
		s = rest2
	}

	if s == "" || (s[0] != '+' && s[0] != '-') {
		return g
	}
	g.XNegative = s[0] == '-'
	x, rest, ok := parseNum(s[1:])
	if !ok {
		return g
	}
	g.X = int(x)
	if g.XNegative {
		g.X = -g.X
	}
	g.XSet = true
	s = rest

	if s == "" || (s[0] != '+' && s[0] != '-') {
		return g
	}
	g.YNegative = s[0] == '-'
	y, rest, ok := parseNum(s[1:])
	if !ok {
		return g
	}
	g.Y = int(y)
	if g.YNegative {
		g.Y = -g.Y
	}
	g.YSet = true

	return g
}

func parseNum(s string) (uint, string, bool) {
	i := 0
	var v uint
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		// Stop accumulating once past the CARD16 range, but keep
		// consuming digits so the rest of the spec still parses.
		if v <= 0xffff {
			v = v*10 + uint(s[i]-'0')
		}
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	if v > 0xffff {
		v = 0xffff
	}
	return v, s[i:], true
}
