package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswerStyle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AnswerStyle
		wantErr bool
	}{
		{name: "concise", input: "concise", want: StyleConcise},
		{name: "detailed", input: "detailed", want: StyleDetailed},
		{name: "academic", input: "academic", want: StyleAcademic},
		{name: "simple", input: "simple", want: StyleSimple},
		{name: "empty defaults to concise", input: "", want: StyleConcise},
		{name: "unknown style rejected", input: "sarcastic", wantErr: true},
		{name: "case sensitive", input: "Concise", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerStyle(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
