package core

import (
	"github.com/ethereum/go-ethereum/event"

	"github.com/blocktreelabs/blocktree/core/types"
)

// eventFeeds bundles the three feeds the tree publishes to, the same
// event.Feed/SubscriptionScope pairing the teacher's SnailPool uses for
// fruitFeed/fastBlockFeed.
type eventFeeds struct {
	bestSuggestedFeed event.Feed
	addedToMainFeed   event.Feed
	newHeadFeed       event.Feed
	scope             event.SubscriptionScope
}

// SubscribeNewBestSuggestedBlock delivers every NewBestSuggestedBlockEvent.
func (t *BlockTree) SubscribeNewBestSuggestedBlock(ch chan<- types.NewBestSuggestedBlockEvent) event.Subscription {
	return t.events.scope.Track(t.events.bestSuggestedFeed.Subscribe(ch))
}

// SubscribeBlockAddedToMain delivers every BlockAddedToMainEvent, one
// per block promoted by MoveToMain.
func (t *BlockTree) SubscribeBlockAddedToMain(ch chan<- types.BlockAddedToMainEvent) event.Subscription {
	return t.events.scope.Track(t.events.addedToMainFeed.Subscribe(ch))
}

// SubscribeNewHeadBlock delivers every NewHeadBlockEvent.
func (t *BlockTree) SubscribeNewHeadBlock(ch chan<- types.NewHeadBlockEvent) event.Subscription {
	return t.events.scope.Track(t.events.newHeadFeed.Subscribe(ch))
}

// Close stops delivering to every live subscription. Safe to call more
// than once.
func (t *BlockTree) Close() {
	t.events.scope.Close()
}
