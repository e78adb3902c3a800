package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleText(t *testing.T) {
	page := `<html><head><title>Ignored</title><style>p{}</style></head>
<body>
  <nav>Home</nav>
  <p>The meeting is on <b>March 17 2018</b> at 6pm.</p>
  <script>var x = "at 5pm";</script>
  <ul><li>Bring 2 cups of sugar</li><li>Walk 5 km</li></ul>
</body></html>`

	got, err := VisibleText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Home\nThe meeting is on March 17 2018 at 6pm.\nBring 2 cups of sugar\nWalk 5 km", got)
}

func TestVisibleText_PrefersMain(t *testing.T) {
	page := `<body><header>Sign in</header><main><p>Call me tomorrow.</p></main><footer>© 2024</footer></body>`

	got, err := VisibleText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Call me tomorrow.", got, "expected only main content")
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "abbreviations and dedup",
			text: "Meet Dr. Smith at 5 p.m. tomorrow. Is it 3.5 km away? Yes!\nSecond line without a stop\nMeet Dr. Smith at 5 p.m. tomorrow.",
			want: []string{
				"Meet Dr. Smith at 5 p.m. tomorrow.",
				"Is it 3.5 km away?",
				"Yes!",
				"Second line without a stop",
			},
		},
		{
			name: "quoted ending",
			text: `She said "see you at noon." Then left.`,
			want: []string{`She said "see you at noon."`, "Then left."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}

func TestSentences_LongRunIsCut(t *testing.T) {
	long := strings.Repeat("word ", 400)
	for _, s := range Sentences(long) {
		assert.LessOrEqual(t, len(s), maxSentence)
	}
}

func TestSentences_Empty(t *testing.T) {
	assert.Empty(t, Sentences("  \n\n "))
}
