package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"docverify/internal/idcard/models"
	"docverify/internal/idcard/store"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindIndex(ctx context.Context, kind models.IdentifierKind, key string) (models.CardLocator, error) {
	args := m.Called(ctx, kind, key)
	return args.Get(0).(models.CardLocator), args.Error(1)
}

func (m *mockStore) LoadCard(ctx context.Context, loc models.CardLocator) (*models.IDCard, error) {
	args := m.Called(ctx, loc)
	if card := args.Get(0); card != nil {
		return card.(*models.IDCard), args.Error(1)
	}
	return nil, args.Error(1)
}

type ResolverSuite struct {
	suite.Suite
	store    *mockStore
	resolver *Resolver
	ctx      context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.store = new(mockStore)
	s.resolver = NewResolver(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *ResolverSuite) TearDownTest() {
	s.store.AssertExpectations(s.T())
}

func (s *ResolverSuite) TestFound() {
	loc := models.CardLocator{CardID: id.NewCardID(), OwnerID: id.NewUserID()}
	card := &models.IDCard{ID: loc.CardID, Name: "Ramesh Kumar"}
	s.store.On("FindIndex", s.ctx, models.KindAadhaarNumber, "123456789012").Return(loc, nil)
	s.store.On("LoadCard", s.ctx, loc).Return(card, nil)

	res := s.resolver.Resolve(s.ctx, models.KindAadhaarNumber, " 1234 5678\t9012 ")

	s.Equal(StatusFound, res.Status)
	s.Equal("123456789012", res.Key)
	s.Same(card, res.Card)
}

func (s *ResolverSuite) TestNotFound() {
	s.store.On("FindIndex", s.ctx, models.KindIDNumber, "IDC-000000000000").
		Return(models.CardLocator{}, fmt.Errorf("wrapped: %w", sentinel.ErrNotFound))

	res := s.resolver.Resolve(s.ctx, models.KindIDNumber, "IDC-000000000000")

	s.Equal(StatusNotFound, res.Status)
	s.Nil(res.Card)
}

func (s *ResolverSuite) TestIndexWithoutRecordIsIntegrityError() {
	loc := models.CardLocator{CardID: id.NewCardID(), OwnerID: id.NewUserID()}
	s.store.On("FindIndex", s.ctx, models.KindIDNumber, "IDC-123456789012").Return(loc, nil)
	s.store.On("LoadCard", s.ctx, loc).Return(nil, sentinel.ErrNotFound)

	res := s.resolver.Resolve(s.ctx, models.KindIDNumber, "IDC-123456789012")

	s.Equal(StatusIntegrityError, res.Status)
}

func (s *ResolverSuite) TestTransportFailuresAreNeverNotFound() {
	permission := errors.New("permission denied for table id_number_lookups")
	s.Run("index query", func() {
		s.SetupTest()
		s.store.On("FindIndex", s.ctx, models.KindIDNumber, "IDC-1").Return(models.CardLocator{}, permission)

		res := s.resolver.Resolve(s.ctx, models.KindIDNumber, "IDC-1")
		s.Equal(StatusLookupError, res.Status)
		s.ErrorIs(res.Err, permission)
	})
	s.Run("record load", func() {
		s.SetupTest()
		loc := models.CardLocator{CardID: id.NewCardID()}
		s.store.On("FindIndex", s.ctx, models.KindIDNumber, "IDC-2").Return(loc, nil)
		s.store.On("LoadCard", s.ctx, loc).Return(nil, context.DeadlineExceeded)

		res := s.resolver.Resolve(s.ctx, models.KindIDNumber, "IDC-2")
		s.Equal(StatusLookupError, res.Status)
		s.ErrorIs(res.Err, context.DeadlineExceeded)
	})
}

func (s *ResolverSuite) TestBlankKeySkipsStore() {
	res := s.resolver.Resolve(s.ctx, models.KindIDNumber, " \n ")
	s.Equal(StatusNotFound, res.Status)
	s.store.AssertNotCalled(s.T(), "FindIndex", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolverWithMemoryStore(t *testing.T) {
	st := store.NewInMemory()
	owner := id.NewUserID()
	card := &models.IDCard{ID: id.NewCardID(), OwnerID: owner, IDNumber: "IDC-123456789012", Name: "Priya"}
	require.NoError(t, st.Create(context.Background(), card))

	res := NewResolver(st, nil).Resolve(context.Background(), models.KindIDNumber, "IDC-1234 5678 9012")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, "Priya", res.Card.Name)
}
