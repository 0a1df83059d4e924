package local_kv_test

import (
	"errors"
	"testing"

	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/repository/local_kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CompilePattern(t *testing.T) {
	g, err := local_kv.CompilePattern("ns:*")
	require.NoError(t, err)

	assert.True(t, g.Match("ns:a"))
	assert.True(t, g.Match("ns:a:b"))
	assert.True(t, g.Match("ns:"))
	assert.False(t, g.Match("other:a"))
	assert.False(t, g.Match("nsa"))
}

func Test_CompilePattern_RedisSyntax(t *testing.T) {
	testCases := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{
			pattern: "h?llo",
			match:   []string{"hello", "hallo"},
			noMatch: []string{"hllo", "heello"},
		},
		{
			pattern: "h[ae]llo",
			match:   []string{"hello", "hallo"},
			noMatch: []string{"hillo"},
		},
		{
			pattern: "h[^e]llo",
			match:   []string{"hallo", "hbllo"},
			noMatch: []string{"hello"},
		},
		{
			pattern: "h[a-b]llo",
			match:   []string{"hallo", "hbllo"},
			noMatch: []string{"hcllo"},
		},
		{
			pattern: "k[a-c0-9]",
			match:   []string{"ka", "k5"},
			noMatch: []string{"kz", "k"},
		},
		{
			pattern: "[!-#]",
			match:   []string{"!", "\"", "#"},
			noMatch: []string{"$"},
		},
		{
			pattern: "[^-x]",
			match:   []string{"a"},
			noMatch: []string{"-", "x"},
		},
		{
			pattern: `h\*llo`,
			match:   []string{"h*llo"},
			noMatch: []string{"hello"},
		},
		{
			pattern: "{user}:*",
			match:   []string{"{user}:k"},
			noMatch: []string{"user:k"},
		},
		{
			pattern: "a,b!",
			match:   []string{"a,b!"},
		},
		{
			pattern: `\{user\}:*`,
			match:   []string{"{user}:k"},
			noMatch: []string{"user:k"},
		},
		{
			pattern: `a\[:*`,
			match:   []string{"a[:k"},
			noMatch: []string{"a:k"},
		},
		{
			pattern: `tail\`,
			match:   []string{`tail\`},
		},
		{
			pattern: "a[",
			noMatch: []string{"a", "a["},
		},
		{
			pattern: "a[]b",
			noMatch: []string{"ab", "a]b"},
		},
		{
			pattern: "a[^",
			match:   []string{"ax"},
			noMatch: []string{"a"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern, func(t *testing.T) {
			g, err := local_kv.CompilePattern(tc.pattern)
			require.NoError(t, err)

			for _, s := range tc.match {
				assert.True(t, g.Match(s), s)
			}
			for _, s := range tc.noMatch {
				assert.False(t, g.Match(s), s)
			}
		})
	}
}

func Test_CompilePattern_Unsupported(t *testing.T) {
	_, err := local_kv.CompilePattern("ns:[^a-z0-9]")

	protoErr := model.ProtocolError{}
	assert.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "KEYS", protoErr.Cmd)
}

func Test_LiteralPrefix(t *testing.T) {
	assert.Equal(t, "ns:", local_kv.LiteralPrefix("ns:*"))
	assert.Equal(t, "n", local_kv.LiteralPrefix("n?:*"))
	assert.Equal(t, "ns:key", local_kv.LiteralPrefix("ns:key"))
	assert.Equal(t, "", local_kv.LiteralPrefix("*"))
	assert.Equal(t, "{user}:", local_kv.LiteralPrefix(`\{user\}:*`))
	assert.Equal(t, "a[:", local_kv.LiteralPrefix(`a\[:*`))
	assert.Equal(t, "{user}:", local_kv.LiteralPrefix("{user}:*"))
}
