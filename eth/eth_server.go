package eth

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

type con struct {
	*ethclient.Client
	URL string
}

var cons map[cmn.Chain]*con = make(map[cmn.Chain]*con) // chain -> client
var consMutex = sync.Mutex{}

// Rate limiter per chain. The public RPC endpoints we lean on throttle hard;
// a fixed minimum interval between calls plus a backoff window on 429 keeps
// us under their limits.
type rateLimiter struct {
	chain        cmn.Chain
	maxPerSec    int
	lastCallTime time.Time
	backoffUntil time.Time
	mu           sync.Mutex
}

const rateLimitBackoff = 5 * time.Second

var rateLimiters = make(map[cmn.Chain]*rateLimiter)
var rateLimitersMu sync.Mutex

func getRateLimiter(chain cmn.Chain) *rateLimiter {
	rateLimitersMu.Lock()
	defer rateLimitersMu.Unlock()

	if rl, ok := rateLimiters[chain]; ok {
		return rl
	}

	rate := cmn.Config.RPCRateLimit
	if rate <= 0 {
		rate = 5
	}

	rl := &rateLimiter{
		chain:        chain,
		maxPerSec:    rate,
		lastCallTime: time.Now().Add(-time.Second),
	}
	rateLimiters[chain] = rl
	return rl
}

// waitForToken blocks until a call slot is available: at N calls/sec there is
// at least 1/N seconds between calls.
func (rl *rateLimiter) waitForToken() {
	for {
		rl.mu.Lock()

		now := time.Now()

		if now.Before(rl.backoffUntil) {
			waitTime := time.Until(rl.backoffUntil)
			rl.mu.Unlock()
			time.Sleep(waitTime)
			continue
		}

		minInterval := time.Second / time.Duration(rl.maxPerSec)
		sinceLast := now.Sub(rl.lastCallTime)

		if sinceLast < minInterval {
			waitTime := minInterval - sinceLast
			rl.mu.Unlock()
			time.Sleep(waitTime)
			continue
		}

		rl.lastCallTime = time.Now()
		rl.mu.Unlock()
		return
	}
}

func (rl *rateLimiter) onRateLimitError() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	log.Warn().Str("chain", string(rl.chain)).Int("rate", rl.maxPerSec).Msg("429 rate limit error")
	rl.backoffUntil = time.Now().Add(rateLimitBackoff)
}

func acquireRateLimit(chain cmn.Chain) {
	getRateLimiter(chain).waitForToken()
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return cmn.Contains(errStr, "429") || cmn.Contains(errStr, "Too Many Requests") || cmn.Contains(errStr, "rate limit")
}

func isGatewayError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return cmn.Contains(errStr, "502") || cmn.Contains(errStr, "503") || cmn.Contains(errStr, "504") ||
		cmn.Contains(errStr, "Gateway") || cmn.Contains(errStr, "Service Unavailable")
}

// handleRPCResult classifies RPC failures and notifies the UI about the
// endpoint misbehaving; the data error still goes back to the caller.
func handleRPCResult(chain cmn.Chain, err error) {
	if err != nil && isRateLimitError(err) {
		getRateLimiter(chain).onRateLimitError()
		bus.Send("ui", "notify-error", fmt.Sprintf("%s: RPC rate limit (429)", chain))
	} else if err != nil && isGatewayError(err) {
		bus.Send("ui", "notify-error", fmt.Sprintf("%s: RPC gateway error", chain))
	}
}

func Init() {
	LoadABIs()
	openConnections()
	go Loop(bus.Subscribe("eth"))
}

func Loop(ch chan *bus.Message) {
	for msg := range ch {
		if msg.RespondTo != 0 {
			continue // ignore responses
		}
		go process(msg)
	}
}

func process(msg *bus.Message) {
	switch msg.Topic {
	case "eth":
		chain := chainFromMessage(msg)

		switch msg.Type {
		case "balance":
			acquireRateLimit(chain)
			data, err := getBalance(msg)
			handleRPCResult(chain, err)
			msg.Respond(data, err)
		case "allowance":
			acquireRateLimit(chain)
			data, err := getAllowance(msg)
			handleRPCResult(chain, err)
			msg.Respond(data, err)
		case "approve-data":
			data, err := approveData(msg)
			msg.Respond(data, err)
		case "tx-status":
			acquireRateLimit(chain)
			data, err := txStatus(msg)
			handleRPCResult(chain, err)
			msg.Respond(data, err)
		case "connected":
			// our own announcement
		default:
			log.Error().Msgf("eth: unknown type: %v", msg.Type)
		}
	}
}

func chainFromMessage(msg *bus.Message) cmn.Chain {
	switch req := msg.Data.(type) {
	case *bus.B_EthBalance:
		return req.Chain
	case *bus.B_EthAllowance:
		return req.Chain
	case *bus.B_EthTxStatus:
		return req.Chain
	}
	return cmn.DefaultChain()
}

func openConnections() {
	consMutex.Lock()
	defer consMutex.Unlock()

	for _, c := range cons {
		c.Close()
	}
	cons = make(map[cmn.Chain]*con)

	for _, chain := range []cmn.Chain{cmn.ChainEthereum, cmn.ChainPolygon} {
		openClient_locked(chain)
	}
}

func openClient_locked(chain cmn.Chain) error {
	client, err := ethclient.Dial(chain.RpcUrl())
	if err != nil {
		log.Error().Err(err).Str("chain", string(chain)).Str("url", chain.RpcUrl()).Msg("OpenClient: Cannot dial")
		return err
	}
	cons[chain] = &con{client, chain.RpcUrl()}
	log.Trace().Str("chain", string(chain)).Msg("OpenClient: Client opened")
	bus.Send("eth", "connected", chain)
	return nil
}

func getEthClient(chain cmn.Chain) (*ethclient.Client, error) {
	consMutex.Lock()
	defer consMutex.Unlock()

	c, ok := cons[chain]
	if !ok {
		return nil, fmt.Errorf("client not found for chain %s", chain)
	}

	if c.Client == nil {
		return nil, fmt.Errorf("client is nil for chain %s", chain)
	}

	return c.Client, nil
}
