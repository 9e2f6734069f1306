package federated

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const defaultFlowTTL = 10 * time.Minute

// ErrUnknownState is returned for a state that was never issued, was already
// used, or has expired.
var ErrUnknownState = errors.New("unknown or expired oauth state")

// FlowState is kept between redirecting to the provider and its callback.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

// FlowStore is a thread-safe in-memory store of pending sign-in flows keyed
// by the OAuth state parameter. Each state can be consumed once.
type FlowStore struct {
	mu      sync.Mutex
	states  map[string]FlowState
	ttl     time.Duration
	nowTime func() time.Time
}

func NewFlowStore(ttl time.Duration) *FlowStore {
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}
	return &FlowStore{
		states:  make(map[string]FlowState),
		ttl:     ttl,
		nowTime: time.Now,
	}
}

// Begin creates a new flow and returns its state parameter.
func (s *FlowStore) Begin(returnURL string) (string, FlowState, error) {
	state, err := randomString(32)
	if err != nil {
		return "", FlowState{}, err
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", FlowState{}, err
	}
	verifier, err := randomString(48)
	if err != nil {
		return "", FlowState{}, err
	}

	fs := FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		ReturnURL:    returnURL,
		CreatedAt:    s.nowTime(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.states[state] = fs
	return state, fs, nil
}

// Consume returns and forgets the flow for state.
func (s *FlowStore) Consume(state string) (FlowState, error) {
	if state == "" {
		return FlowState{}, ErrUnknownState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.states[state]
	if !ok {
		return FlowState{}, ErrUnknownState
	}
	delete(s.states, state)
	if s.expired(fs) {
		return FlowState{}, ErrUnknownState
	}
	return fs, nil
}

func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *FlowStore) pruneLocked() {
	for k, fs := range s.states {
		if s.expired(fs) {
			delete(s.states, k)
		}
	}
}

func (s *FlowStore) expired(fs FlowState) bool {
	return s.nowTime().Sub(fs.CreatedAt) > s.ttl
}

// randomString creates a random base64url string
func randomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
