package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogport "tradechat/internal/pkg/catalog/port"
	chat "tradechat/internal/pkg/chat/application/domain"
)

func TestStartConversationCreatesThenFinds(t *testing.T) {
	repo := newTestRepo()
	uc := NewStartConversationUseCase(repo, newFakeDirectory("buyer", "seller"), nil)
	ctx := context.Background()

	out, err := uc.Execute(ctx, StartConversationInput{RequesterID: "buyer", CounterpartID: "seller"})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.NotEmpty(t, out.Conversation.ID)
	assert.True(t, out.Conversation.HasParticipant("buyer"))
	assert.True(t, out.Conversation.HasParticipant("seller"))

	// the reversed pair resolves to the same conversation
	again, err := uc.Execute(ctx, StartConversationInput{RequesterID: "seller", CounterpartID: "buyer"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, out.Conversation.ID, again.Conversation.ID)
}

func TestStartConversationRejectsSelf(t *testing.T) {
	uc := NewStartConversationUseCase(newTestRepo(), newFakeDirectory("buyer"), nil)

	_, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer", CounterpartID: "buyer"})
	assert.ErrorIs(t, err, chat.ErrSelfConversation)
}

func TestStartConversationRejectsUnknownUsers(t *testing.T) {
	uc := NewStartConversationUseCase(newTestRepo(), newFakeDirectory("buyer"), nil)

	_, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer", CounterpartID: "ghost"})
	assert.ErrorIs(t, err, chat.ErrInvalidParticipant)

	_, err = uc.Execute(context.Background(), StartConversationInput{RequesterID: "ghost", CounterpartID: "buyer"})
	assert.ErrorIs(t, err, chat.ErrInvalidParticipant)
}

func TestStartConversationFromProductResolvesSeller(t *testing.T) {
	repo := newTestRepo()
	catalog := newFakeCatalog(catalogport.Product{ID: "p1", SellerID: "seller", Title: "lamp", Price: 4500})
	uc := NewStartConversationUseCase(repo, newFakeDirectory("buyer", "seller"), catalog)

	out, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer", ContextProductID: "p1"})
	require.NoError(t, err)
	assert.True(t, out.Conversation.HasParticipant("seller"))

	// a direct conversation with the seller is the same conversation
	direct, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer", CounterpartID: "seller"})
	require.NoError(t, err)
	assert.Equal(t, out.Conversation.ID, direct.Conversation.ID)
}

func TestStartConversationFromUnknownProduct(t *testing.T) {
	uc := NewStartConversationUseCase(newTestRepo(), newFakeDirectory("buyer"), newFakeCatalog())

	_, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer", ContextProductID: "gone"})
	assert.ErrorIs(t, err, chat.ErrInvalidParticipant)
}

func TestStartConversationFromOwnListing(t *testing.T) {
	catalog := newFakeCatalog(catalogport.Product{ID: "p1", SellerID: "seller", Title: "lamp", Price: 4500})
	uc := NewStartConversationUseCase(newTestRepo(), newFakeDirectory("seller"), catalog)

	_, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "seller", ContextProductID: "p1"})
	assert.ErrorIs(t, err, chat.ErrSelfConversation)
}

func TestStartConversationRequiresACounterpart(t *testing.T) {
	uc := NewStartConversationUseCase(newTestRepo(), newFakeDirectory("buyer"), nil)

	_, err := uc.Execute(context.Background(), StartConversationInput{RequesterID: "buyer"})
	assert.Error(t, err)
}
