package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemIndex(t *testing.T) {
	out, err := AddItemIndex("https://www.instagram.com/p/abc/?utm_source=ig#frag", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/p/abc/?utm_source=ig&img_index=3#frag", out)

	out, err = AddItemIndex(out, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/p/abc/?utm_source=ig&img_index=5#frag", out)
}

func TestItemIndexKeepsParamOrder(t *testing.T) {
	out, err := AddItemIndex("https://www.youtube.com/watch?v=abc&list=PL1", 2)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc&list=PL1&img_index=2", out)

	out, err = RemoveItemIndex("https://www.instagram.com/p/abc/?z=1&img_index=4&a=2")
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/p/abc/?z=1&a=2", out)

	out, err = AddItemIndex("https://www.instagram.com/p/abc/?z=1&img_index=4&a=2", 7)
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/p/abc/?z=1&img_index=7&a=2", out)
}

func TestRemoveItemIndex(t *testing.T) {
	out, err := RemoveItemIndex("https://www.instagram.com/p/abc/?img_index=2")
	require.NoError(t, err)
	assert.Equal(t, "https://www.instagram.com/p/abc/", out)
}

func TestItemIndexRoundTrip(t *testing.T) {
	urls := []string{
		"https://www.instagram.com/p/abc/",
		"https://www.instagram.com/p/abc/?b=2&a=1#top",
		"https://www.instagram.com/p/abc/?img_index=9&a=1",
	}
	for _, u := range urls {
		added, err := AddItemIndex(u, 3)
		require.NoError(t, err)
		roundTrip, err := RemoveItemIndex(added)
		require.NoError(t, err)
		stripped, err := RemoveItemIndex(u)
		require.NoError(t, err)
		assert.Equal(t, stripped, roundTrip, u)
	}
}

func TestIsInstagram(t *testing.T) {
	assert.True(t, IsInstagram("https://WWW.INSTAGRAM.COM/reel/x"))
	assert.False(t, IsInstagram("https://youtube.com/watch?v=1"))
}
