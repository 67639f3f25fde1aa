package utils_test

import (
	"testing"

	"github.com/edithx/rewarder/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestFoldText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "lowercases", input: "LaunchWeek", want: "launchweek"},
		{name: "strips accents", input: "Café", want: "cafe"},
		{name: "fullwidth", input: "ＡＢＣ", want: "abc"},
		{name: "hash prefix", input: "#Launch", want: "launch"},
		{name: "mention prefix", input: " @Brand ", want: "brand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.FoldText(tt.input))
		})
	}
}

func TestFoldEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, utils.FoldEqual("@Brand", "brand"))
	assert.True(t, utils.FoldEqual("#Résumé", "resume"))
	assert.False(t, utils.FoldEqual("brand", "brands"))
}
