package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "  zero-day   in\nLog4j ", want: "zero-day in Log4j"},
		{name: "markup stripped", in: "<p>Patch <b>now</b></p><p>servers</p>", want: "Patch nowservers"},
		{name: "scripts removed", in: "<div>outage<script>alert(1)</script></div>", want: "outage"},
		{name: "entities decoded", in: "AT&amp;T outage", want: "AT&T outage"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, htmlToText(tt.in))
		})
	}
}
