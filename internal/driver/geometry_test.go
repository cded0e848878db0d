package driver

import "testing"

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want Geometry
	}{
		{
			name: "empty",
			spec: "",
			want: Geometry{},
		},
		{
			name: "size only",
			spec: "800x600",
			want: Geometry{Width: 800, Height: 600, WidthSet: true, HeightSet: true},
		},
		{
			name: "size with equals prefix",
			spec: "=1024x768",
			want: Geometry{Width: 1024, Height: 768, WidthSet: true, HeightSet: true},
		},
		{
			name: "uppercase separator",
			spec: "640X480",
			want: Geometry{Width: 640, Height: 480, WidthSet: true, HeightSet: true},
		},
		{
			name: "size and position",
			spec: "800x600+10+20",
			want: Geometry{
				Width: 800, Height: 600, WidthSet: true, HeightSet: true,
				X: 10, Y: 20, XSet: true, YSet: true,
			},
		},
		{
			name: "negative offsets",
			spec: "300x200-5-15",
			want: Geometry{
				Width: 300, Height: 200, WidthSet: true, HeightSet: true,
				X: -5, Y: -15, XSet: true, YSet: true,
				XNegative: true, YNegative: true,
			},
		},
		{
			name: "position only",
			spec: "+100+200",
			want: Geometry{X: 100, Y: 200, XSet: true, YSet: true},
		},
		{
			name: "negative zero keeps the flag",
			spec: "+0-0",
			want: Geometry{XSet: true, YSet: true, YNegative: true},
		},
		{
			name: "x offset only",
			spec: "640x480+30",
			want: Geometry{
				Width: 640, Height: 480, WidthSet: true, HeightSet: true,
				X: 30, XSet: true,
			},
		},
		{
			name: "garbage",
			spec: "bogus",
			want: Geometry{},
		},
		{
			name: "missing height",
			spec: "800x",
			want: Geometry{},
		},
		{
			name: "trailing garbage ignored",
			spec: "800x600zzz",
			want: Geometry{Width: 800, Height: 600, WidthSet: true, HeightSet: true},
		},
		{
			name: "oversized width clamps to the wire range",
			spec: "70000x480",
			want: Geometry{Width: 65535, Height: 480, WidthSet: true, HeightSet: true},
		},
		{
			name: "absurdly long number still clamps and parses on",
			spec: "99999999999999999999x600+10+20",
			want: Geometry{
				Width: 65535, Height: 600, WidthSet: true, HeightSet: true,
				X: 10, Y: 20, XSet: true, YSet: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGeometry(tt.spec)
			if got != tt.want {
				t.Errorf("ParseGeometry(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseGeometryDefaultsOnlyWithoutTokens(t *testing.T) {
	// The 640x480 default applies only when no size token is present;
	// explicit tokens always win. The defaulting itself lives in the
	// desktop builder, so here we check the flags it keys on.
	explicit := ParseGeometry("1x1")
	if !explicit.WidthSet || !explicit.HeightSet {
		t.Error("explicit size must set the Set flags")
	}
	missing := ParseGeometry("+5+5")
	if missing.WidthSet || missing.HeightSet {
		t.Error("position-only geometry must leave size flags unset")
	}
}
