package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	assert.Equal(t, "", RequestIDFromContext(WithRequestID(context.Background(), "  ")))
}

func TestActorRoundTrip(t *testing.T) {
	role, id := ActorFromContext(context.Background())
	assert.Empty(t, role)
	assert.Empty(t, id)

	ctx := WithActor(context.Background(), "student", "42")
	role, id = ActorFromContext(ctx)
	assert.Equal(t, "student", role)
	assert.Equal(t, "42", id)
}
