package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbloom/internal/models"
)

type fakeCompleter struct {
	reply string
	err   error
	got   []Request
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.got = append(f.got, req)
	return f.reply, f.err
}

func seeded() *Responder { return NewResponder(rand.New(rand.NewSource(3))) }

func TestResolverUsesRemoteVerbatim(t *testing.T) {
	remote := &fakeCompleter{reply: "  remote words  "}
	r := NewResolver(remote, seeded(), nil)

	var history []Turn
	for i := 0; i < 15; i++ {
		history = append(history, Turn{Role: models.RoleUser, Content: fmt.Sprint(i)})
	}
	got := r.Resolve(context.Background(), "hello", history)
	assert.Equal(t, "  remote words  ", got)

	require.Len(t, remote.got, 1)
	req := remote.got[0]
	assert.Equal(t, "hello", req.Message)
	assert.Equal(t, Persona, req.Persona)
	require.Len(t, req.History, HistoryWindow)
	assert.Equal(t, "5", req.History[0].Content)
	assert.Equal(t, "14", req.History[9].Content)
}

func TestResolverFallsBackOnAnyFailure(t *testing.T) {
	anxious := poolFor(t, "anxious")
	failures := []error{
		ErrNoCredential,
		ErrEmptyResponse,
		&StatusError{StatusCode: 502},
		errors.New("dial tcp: connection refused"),
	}
	for _, failure := range failures {
		r := NewResolver(&fakeCompleter{err: failure}, seeded(), nil)
		got := r.Resolve(context.Background(), "so anxious today", nil)
		assert.Contains(t, anxious, got, failure.Error())
	}
}

func TestResolverWithoutRemoteIsDeterministic(t *testing.T) {
	a := NewResolver(nil, NewResponder(rand.New(rand.NewSource(9))), nil)
	b := NewResolver(nil, NewResponder(rand.New(rand.NewSource(9))), nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Resolve(context.Background(), "hi", nil), b.Resolve(context.Background(), "hi", nil))
	}
}

func TestWindow(t *testing.T) {
	h := []Turn{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	assert.Equal(t, h, Window(h, 10))
	assert.Equal(t, h[1:], Window(h, 2))
	assert.Equal(t, h, Window(h, 0))
}
