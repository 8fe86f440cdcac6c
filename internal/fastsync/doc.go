/*
Package fastsync implements the engine that drives a one-shot fast sync: the
state of a single target block is fetched from the network and imported
directly, instead of replaying every block before it.

The Engine is a single goroutine event loop. It owns the sync Strategy, the
set of connected peers and the tracker of in-flight state requests. Every loop
iteration waits for exactly one external event (a control command from a
SyncingService, a response from the network, or a peer update), then drains
every action the strategy has available:

	SendStateRequest  encode the request and send it to the peer
	DropPeer          forget outstanding requests, disconnect and report the peer
	ImportBlocks      hand the batch to the shared import queue and stop
	Finished          informational

An empty action list means the sync can make no further progress and the
engine stops with ErrNoFurtherActions.

The strategy is only polled after the first event, so callers usually issue
SyncingService.Start once the engine is running.

Every failure a remote peer can produce is mapped to a reputation change and a
disconnect decision by PolicyFor; none of them is fatal to the engine.
*/
package fastsync
