package auth

//go:generate mockgen -destination=auth_mock_test.go -package=auth clientregistry/internal/auth CredentialStore,PasswordHasher,TokenIssuer,TokenVerifier,Authorizer,Service

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clientregistry/internal/audit"
)

const testIssuer = "Api"

var (
	keyOnce   sync.Once
	keyA      *rsa.PrivateKey
	keyB      *rsa.PrivateKey
	keyGenErr error
)

// testKeys generates two 2048-bit keys once per test binary.
func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		if keyA, keyGenErr = rsa.GenerateKey(rand.Reader, 2048); keyGenErr != nil {
			return
		}
		keyB, keyGenErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, keyGenErr)
	return keyA, keyB
}

func testKeySet(t *testing.T) *KeySet {
	t.Helper()
	priv, _ := testKeys(t)
	ks, err := NewKeySet(priv, nil)
	require.NoError(t, err)
	return ks
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Publish(e audit.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audit.Event(nil), p.events...)
}

func (p *recordingPublisher) Types() []audit.EventType {
	events := p.Events()
	out := make([]audit.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
