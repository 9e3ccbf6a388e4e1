package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			source:   "40 minutes at **conversational pace**.",
			contains: []string{"<strong>conversational pace</strong>"},
		},
		{
			name:     "list",
			source:   "22 km easy.\n\n- practise race nutrition\n- wear race shoes",
			contains: []string{"<ul>", "<li>practise race nutrition</li>"},
		},
		{
			name:     "hard wraps",
			source:   "line one\nline two",
			contains: []string{"line one<br>"},
		},
		{
			name:     "raw html omitted",
			source:   "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "empty",
			source:   "",
			excludes: []string{"<p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Markdown(tt.source)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}
