package tokencount_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai/tokencount"
)

func TestCountTokens_NonZero(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()

	n := c.CountTokens("Recommend career paths for a student who enjoys mathematics.", "openai/gpt-4o")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 30)
}

func TestCountTokens_Empty(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	assert.Equal(t, 0, c.CountTokens("", "openai/gpt-4o"))
}

func TestCountTokens_ScalesWithLength(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	short := c.CountTokens("hello world", "mistralai/mistral-7b-instruct:free")
	long := c.CountTokens(strings.Repeat("hello world ", 100), "mistralai/mistral-7b-instruct:free")
	assert.Greater(t, long, short*50)
}

func TestCountTokens_UnknownModelStillCounts(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	n := c.CountTokens("some text to count", "madeup-vendor/unknown-model-v99")
	assert.Greater(t, n, 0)
}

func TestCountTokens_Concurrent(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.CountTokens("concurrent access to the encoding cache", "openai/gpt-4o")
			}
		}()
	}
	wg.Wait()
}

func TestCountTokensDefault(t *testing.T) {
	t.Parallel()
	assert.Greater(t, tokencount.CountTokensDefault("shared counter", "gpt-3.5-turbo"), 0)
}
