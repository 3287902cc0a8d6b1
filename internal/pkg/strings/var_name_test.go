package strings

import "testing"

func TestToLowerCamel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Service", want: "service"},
		{input: "HTTPClient", want: "httpClient"},
		{input: "URL", want: "url"},
		{input: "HTTP2Client", want: "http2Client"},
		{input: "alreadyLower", want: "alreadyLower"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := ToLowerCamel(tt.input); got != tt.want {
				t.Errorf("ToLowerCamel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimInterfacePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "IService", want: "Service"},
		{input: "Item", want: "Item"},
		{input: "I", want: "I"},
		{input: "IOStream", want: "OStream"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := TrimInterfacePrefix(tt.input); got != tt.want {
				t.Errorf("TrimInterfacePrefix(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToUpperFirst(t *testing.T) {
	t.Parallel()

	if got := ToUpperFirst("func"); got != "Func" {
		t.Errorf("ToUpperFirst(func) = %q", got)
	}
	if got := ToUpperFirst(""); got != "" {
		t.Errorf("ToUpperFirst(\"\") = %q", got)
	}
}
