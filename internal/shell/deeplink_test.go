package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepLinkRegistry_FanOut(t *testing.T) {
	links := NewDeepLinkRegistry()

	var first, second []string
	unsubFirst := links.Subscribe(func(url string) { first = append(first, url) })
	links.Subscribe(func(url string) { second = append(second, url) })

	links.Dispatch("engage://one")
	unsubFirst()
	links.Dispatch("engage://two")

	assert.Equal(t, []string{"engage://one"}, first)
	assert.Equal(t, []string{"engage://one", "engage://two"}, second)
}

func TestDeepLinkRegistry_UnsubscribeTwice(t *testing.T) {
	links := NewDeepLinkRegistry()

	calls := 0
	unsub := links.Subscribe(func(string) { calls++ })
	unsub()
	unsub()

	links.Dispatch("engage://one")
	assert.Zero(t, calls)
}
