package fastsync_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/fastsync/config"
	"github.com/tendermint/fastsync/internal/fastsync"
	"github.com/tendermint/fastsync/internal/fastsync/mocks"
	"github.com/tendermint/fastsync/libs/log"
	fsproto "github.com/tendermint/fastsync/proto/fastsync"
	"github.com/tendermint/fastsync/types"
)

const (
	peerA = types.NodeID("aa00000000000000000000000000000000000000")
	peerB = types.NodeID("bb00000000000000000000000000000000000000")
)

type stateResponse struct {
	peerID   types.NodeID
	response fastsync.OpaqueStateResponse
}

// scriptedStrategy returns one scripted action list per poll, then fallback.
type scriptedStrategy struct {
	mtx       sync.Mutex
	polls     [][]fastsync.Action
	fallback  []fastsync.Action
	status    fastsync.SyncStatus
	responses []stateResponse
	numPolls  int

	polled chan int
}

func newScriptedStrategy(polls ...[]fastsync.Action) *scriptedStrategy {
	return &scriptedStrategy{
		polls:    polls,
		fallback: []fastsync.Action{fastsync.Finished{}},
		polled:   make(chan int, 100),
	}
}

func (s *scriptedStrategy) Actions() []fastsync.Action {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.numPolls++
	actions := s.fallback
	if len(s.polls) > 0 {
		actions, s.polls = s.polls[0], s.polls[1:]
	}
	select {
	case s.polled <- s.numPolls:
	default:
	}
	return actions
}

func (s *scriptedStrategy) OnStateResponse(peerID types.NodeID, response fastsync.OpaqueStateResponse) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.responses = append(s.responses, stateResponse{peerID: peerID, response: response})
}

func (s *scriptedStrategy) Status() fastsync.SyncStatus {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.status
}

func (s *scriptedStrategy) Responses() []stateResponse {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]stateResponse(nil), s.responses...)
}

func (s *scriptedStrategy) waitPolls(t *testing.T, n int) {
	t.Helper()
	timer := time.NewTimer(time.Second)
	defer timer.Stop()
	for {
		select {
		case got := <-s.polled:
			if got >= n {
				return
			}
		case <-timer.C:
			t.Fatalf("strategy was not polled %d times", n)
		}
	}
}

type runResult struct {
	block *types.IncomingBlock
	err   error
}

type testEngine struct {
	engine      *fastsync.Engine
	service     *fastsync.SyncingService
	peerUpdates chan fastsync.PeerUpdate
	result      chan runResult
}

func setup(
	ctx context.Context,
	t *testing.T,
	strategy fastsync.Strategy,
	network fastsync.NetworkService,
	queue *fastsync.SharedImportQueue,
) *testEngine {
	t.Helper()

	peerUpdates := make(chan fastsync.PeerUpdate)
	engine, service, err := fastsync.NewEngine(
		log.TestingLogger(),
		config.TestConfig(),
		strategy,
		network,
		queue,
		peerUpdates,
		fastsync.NopMetrics(),
	)
	require.NoError(t, err)

	te := &testEngine{
		engine:      engine,
		service:     service,
		peerUpdates: peerUpdates,
		result:      make(chan runResult, 1),
	}
	go func() {
		block, err := engine.Run(ctx)
		te.result <- runResult{block: block, err: err}
	}()
	return te
}

func (te *testEngine) connect(t *testing.T, peerID types.NodeID, info types.PeerInfo) {
	t.Helper()
	select {
	case te.peerUpdates <- fastsync.PeerUpdate{NodeID: peerID, Status: fastsync.PeerStatusUp, Info: info}:
	case <-time.After(time.Second):
		t.Fatal("engine did not accept peer update")
	}
}

func (te *testEngine) disconnect(t *testing.T, peerID types.NodeID) {
	t.Helper()
	select {
	case te.peerUpdates <- fastsync.PeerUpdate{NodeID: peerID, Status: fastsync.PeerStatusDown}:
	case <-time.After(time.Second):
		t.Fatal("engine did not accept peer update")
	}
}

func (te *testEngine) wait(t *testing.T) runResult {
	t.Helper()
	select {
	case res := <-te.result:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
		return runResult{}
	}
}

func newStateRequest() *fsproto.StateRequest {
	return &fsproto.StateRequest{Block: []byte{0x01, 0x02}, Start: [][]byte{[]byte("key")}, NoProof: true}
}

func mustMarshal(t *testing.T, m interface{ Marshal() ([]byte, error) }) []byte {
	t.Helper()
	bz, err := m.Marshal()
	require.NoError(t, err)
	return bz
}

func TestEngineNoFurtherActions(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	network := mocks.NewNetworkService(t)
	queue := mocks.NewImportQueue(t)
	strategy := newScriptedStrategy([]fastsync.Action{})

	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(queue))
	require.NoError(t, te.service.Start(ctx))

	res := te.wait(t)
	assert.ErrorIs(t, res.err, fastsync.ErrNoFurtherActions)
	assert.Nil(t, res.block)

	// nothing is processed once the engine has stopped
	err := te.service.Start(ctx)
	assert.ErrorIs(t, err, fastsync.ErrEngineStopped)
	network.AssertNotCalled(t, "StartRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "ImportBlocks", mock.Anything, mock.Anything)
}

func TestEngineImportBlocks(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocks := []types.IncomingBlock{
		{Hash: []byte("b1"), Number: 1},
		{Hash: []byte("b2"), Number: 2},
		{Hash: []byte("b3"), Number: 3},
	}

	network := mocks.NewNetworkService(t)
	queue := mocks.NewImportQueue(t)
	queue.On("ImportBlocks", types.BlockOriginNetworkInitialSync, blocks).Once()

	strategy := newScriptedStrategy([]fastsync.Action{
		fastsync.Finished{},
		fastsync.ImportBlocks{Origin: types.BlockOriginNetworkInitialSync, Blocks: blocks},
		// never reached
		fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest(newStateRequest())},
	})

	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(queue))
	require.NoError(t, te.service.Start(ctx))

	res := te.wait(t)
	require.NoError(t, res.err)
	require.NotNil(t, res.block)
	assert.Equal(t, blocks[0], *res.block)
}

func TestEngineImportEmptyBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := mocks.NewImportQueue(t)
	queue.On("ImportBlocks", types.BlockOriginFile, []types.IncomingBlock(nil)).Once()
	strategy := newScriptedStrategy([]fastsync.Action{fastsync.ImportBlocks{Origin: types.BlockOriginFile}})

	te := setup(ctx, t, strategy, mocks.NewNetworkService(t), fastsync.NewSharedImportQueue(queue))
	require.NoError(t, te.service.Start(ctx))

	res := te.wait(t)
	require.NoError(t, res.err)
	assert.Nil(t, res.block)
}

func TestEngineImportWaitsForSharedQueue(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := mocks.NewImportQueue(t)
	shared := fastsync.NewSharedImportQueue(queue)
	unlock, err := shared.Lock(ctx)
	require.NoError(t, err)
	defer unlock()

	strategy := newScriptedStrategy([]fastsync.Action{
		fastsync.ImportBlocks{Origin: types.BlockOriginFile, Blocks: []types.IncomingBlock{{Number: 1}}},
	})

	te := setup(ctx, t, strategy, mocks.NewNetworkService(t), shared)
	require.NoError(t, te.service.Start(ctx))
	strategy.waitPolls(t, 1)

	select {
	case res := <-te.result:
		t.Fatalf("engine returned while the import queue was locked: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	res := te.wait(t)
	assert.ErrorIs(t, res.err, context.Canceled)
	queue.AssertNotCalled(t, "ImportBlocks", mock.Anything, mock.Anything)
}

func TestEngineStateRequestRoundTrip(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := newStateRequest()
	resp := &fsproto.StateResponse{
		Entries: []*fsproto.KeyValueStateEntry{{
			Entries:  []*fsproto.StateEntry{{Key: []byte("k"), Value: []byte("v")}},
			Complete: true,
		}},
	}
	respBytes := mustMarshal(t, resp)
	blocks := []types.IncomingBlock{{Hash: []byte("target"), Number: 100}}

	network := mocks.NewNetworkService(t)
	queue := mocks.NewImportQueue(t)
	queue.On("ImportBlocks", types.BlockOriginNetworkInitialSync, blocks).Once()

	strategy := newScriptedStrategy(
		[]fastsync.Action{fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest(req)}},
		[]fastsync.Action{fastsync.ImportBlocks{Origin: types.BlockOriginNetworkInitialSync, Blocks: blocks}},
	)

	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(queue))
	network.On("StartRequest", peerA, te.engine.ProtocolName(), mustMarshal(t, req), mock.Anything, fastsync.IfDisconnectedImmediateError).
		Run(func(args mock.Arguments) {
			resultCh := args.Get(3).(chan<- fastsync.RequestResult)
			resultCh <- fastsync.RequestResult{Response: respBytes, Protocol: te.engine.ProtocolName()}
		}).Once()

	te.connect(t, peerA, types.PeerInfo{Roles: types.RoleFull, BestNumber: 100})
	require.NoError(t, te.service.Start(ctx))

	res := te.wait(t)
	require.NoError(t, res.err)
	assert.Equal(t, blocks[0], *res.block)

	responses := strategy.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, peerA, responses[0].peerID)
	got, err := fastsync.UnwrapAs[*fsproto.StateResponse](responses[0].response.Envelope)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestEngineEncodeFailureDropsOnlyThatAction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := newStateRequest()
	network := mocks.NewNetworkService(t)
	strategy := newScriptedStrategy([]fastsync.Action{
		fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest("not a request")},
		fastsync.SendStateRequest{PeerID: peerB, Request: fastsync.NewOpaqueStateRequest(req)},
	})

	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)))
	network.On("StartRequest", peerB, te.engine.ProtocolName(), mustMarshal(t, req), mock.Anything, fastsync.IfDisconnectedImmediateError).Once()

	require.NoError(t, te.service.Start(ctx))
	strategy.waitPolls(t, 1)

	cancel()
	res := te.wait(t)
	assert.ErrorIs(t, res.err, context.Canceled)
	network.AssertNumberOfCalls(t, "StartRequest", 1)
}

func TestEngineMalformedResponse(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	network := mocks.NewNetworkService(t)
	strategy := newScriptedStrategy(
		[]fastsync.Action{fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest(newStateRequest())}},
	)
	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)))
	protocol := te.engine.ProtocolName()

	var (
		mtx   sync.Mutex
		calls []string
	)
	record := func(call string) func(mock.Arguments) {
		return func(mock.Arguments) {
			mtx.Lock()
			defer mtx.Unlock()
			calls = append(calls, call)
		}
	}

	network.On("StartRequest", peerA, protocol, mock.Anything, mock.Anything, fastsync.IfDisconnectedImmediateError).
		Run(func(args mock.Arguments) {
			args.Get(3).(chan<- fastsync.RequestResult) <- fastsync.RequestResult{Response: []byte{0x0a, 0x05, 0x01}}
		}).Once()
	network.On("ReportPeer", peerA, fastsync.NewReputationChange(-(1<<12), "Bad message")).
		Run(record("report")).Once()
	network.On("DisconnectPeer", peerA, protocol).
		Run(record("disconnect")).Once()

	require.NoError(t, te.service.Start(ctx))
	strategy.waitPolls(t, 2)

	cancel()
	res := te.wait(t)
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Empty(t, strategy.Responses())
	assert.Equal(t, []string{"report", "disconnect"}, calls)
}

func TestEngineRequestFailures(t *testing.T) {
	fatal := fastsync.NewReputationChange(math.MinInt32, "Unsupported protocol")
	timeout := fastsync.NewReputationChange(-(1 << 10), "Request timeout")
	refused := fastsync.NewReputationChange(-(1 << 10), "Request refused")

	testCases := []struct {
		name       string
		result     *fastsync.RequestResult // nil closes the result channel
		reputation *fastsync.ReputationChange
		disconnect bool
	}{
		{"timeout", &fastsync.RequestResult{Err: fastsync.FailureTimeout}, &timeout, true},
		{"unsupported protocols", &fastsync.RequestResult{Err: fastsync.FailureUnsupportedProtocols}, &fatal, true},
		{"refused", &fastsync.RequestResult{Err: fastsync.FailureRefused}, &refused, true},
		{"dial failure", &fastsync.RequestResult{Err: fastsync.FailureDialFailure}, nil, true},
		{"connection closed", &fastsync.RequestResult{Err: fastsync.FailureConnectionClosed}, nil, true},
		{"not connected", &fastsync.RequestResult{Err: fastsync.FailureNotConnected}, nil, true},
		{"other transport error", &fastsync.RequestResult{Err: errors.New("broken pipe")}, nil, true},
		{"canceled", nil, nil, true},
		{"unknown protocol", &fastsync.RequestResult{Err: fastsync.FailureUnknownProtocol}, nil, false},
		{"obsolete", &fastsync.RequestResult{Err: fastsync.FailureObsolete}, nil, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			defer leaktest.CheckTimeout(t, 5*time.Second)()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			network := mocks.NewNetworkService(t)
			strategy := newScriptedStrategy(
				[]fastsync.Action{fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest(newStateRequest())}},
			)
			te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)))
			protocol := te.engine.ProtocolName()

			network.On("StartRequest", peerA, protocol, mock.Anything, mock.Anything, fastsync.IfDisconnectedImmediateError).
				Run(func(args mock.Arguments) {
					resultCh := args.Get(3).(chan<- fastsync.RequestResult)
					if tc.result == nil {
						close(resultCh)
						return
					}
					resultCh <- *tc.result
				}).Once()
			if tc.reputation != nil {
				network.On("ReportPeer", peerA, *tc.reputation).Once()
			}
			if tc.disconnect {
				network.On("DisconnectPeer", peerA, protocol).Once()
			}

			require.NoError(t, te.service.Start(ctx))
			// the second poll follows the response event
			strategy.waitPolls(t, 2)

			cancel()
			res := te.wait(t)
			assert.ErrorIs(t, res.err, context.Canceled)
			assert.Empty(t, strategy.Responses())
			if tc.reputation == nil {
				network.AssertNotCalled(t, "ReportPeer", mock.Anything, mock.Anything)
			}
			if !tc.disconnect {
				network.AssertNotCalled(t, "DisconnectPeer", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestEngineDropPeer(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := fastsync.NewReputationChange(-100, "Bad proof")
	network := mocks.NewNetworkService(t)
	strategy := newScriptedStrategy(
		[]fastsync.Action{fastsync.SendStateRequest{PeerID: peerA, Request: fastsync.NewOpaqueStateRequest(newStateRequest())}},
		[]fastsync.Action{fastsync.DropPeer{PeerID: peerA, Reputation: rep}},
	)
	te := setup(ctx, t, strategy, network, fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)))
	protocol := te.engine.ProtocolName()

	resultChs := make(chan chan<- fastsync.RequestResult, 1)
	network.On("StartRequest", peerA, protocol, mock.Anything, mock.Anything, fastsync.IfDisconnectedImmediateError).
		Run(func(args mock.Arguments) {
			resultChs <- args.Get(3).(chan<- fastsync.RequestResult)
		}).Once()
	network.On("DisconnectPeer", peerA, protocol).Once()
	network.On("ReportPeer", peerA, rep).Once()

	te.connect(t, peerA, types.PeerInfo{})
	require.NoError(t, te.service.Start(ctx))
	require.NoError(t, te.service.Start(ctx))
	strategy.waitPolls(t, 2)

	// a response for the dropped request is never delivered
	resultCh := <-resultChs
	resultCh <- fastsync.RequestResult{Response: mustMarshal(t, &fsproto.StateResponse{Proof: []byte("p")})}

	require.NoError(t, te.service.Start(ctx))
	strategy.waitPolls(t, 3)

	// the dropped peer is gone before the transport reports it down
	peers, err := te.service.PeersInfo(ctx)
	require.NoError(t, err)
	assert.Empty(t, peers)
	te.disconnect(t, peerA)

	cancel()
	res := te.wait(t)
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.Empty(t, strategy.Responses())
}

func TestEngineRunTwice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strategy := newScriptedStrategy()
	te := setup(ctx, t, strategy, mocks.NewNetworkService(t), fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)))
	require.NoError(t, te.service.Start(ctx))

	_, err := te.engine.Run(ctx)
	assert.ErrorIs(t, err, fastsync.ErrAlreadyRunning)

	cancel()
	assert.ErrorIs(t, te.wait(t).err, context.Canceled)
}

func TestNewEngineInvalidConfig(t *testing.T) {
	cfg := config.TestConfig()
	cfg.FastSync.GenesisHash = "not hex"

	_, _, err := fastsync.NewEngine(log.NewNopLogger(), cfg, newScriptedStrategy(),
		mocks.NewNetworkService(t), fastsync.NewSharedImportQueue(mocks.NewImportQueue(t)), nil, nil)
	assert.Error(t, err)
}
