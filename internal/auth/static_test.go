package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer([]string{"root", "ops", ""}, []string{"auctioneer", ""})

	assert.True(t, a.IsAdmin("root"))
	assert.True(t, a.IsAdmin("ops"))
	assert.False(t, a.IsAdmin("auctioneer"))
	assert.False(t, a.IsAdmin(""))

	assert.True(t, a.IsAuctionAdmin("auctioneer"))
	assert.True(t, a.IsAuctionAdmin("root"))
	assert.False(t, a.IsAuctionAdmin("alice"))
	assert.False(t, a.IsAuctionAdmin(""))
}
