package apiapp

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi", ok: true},
		{name: "lowercase scheme", header: "bearer token123", want: "token123", ok: true},
		{name: "missing scheme", header: "token123", ok: false},
		{name: "empty token", header: "Bearer ", ok: false},
		{name: "empty header", header: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractBearerToken(tc.header)
			if ok != tc.ok {
				t.Fatalf("ok mismatch: got %v want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("token mismatch: got %q want %q", got, tc.want)
			}
		})
	}
}
