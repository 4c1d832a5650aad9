package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now         time.Time
	transitions []string
	breaker     *Breaker
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.transitions = nil
	s.breaker = New("genai",
		WithFailureThreshold(2),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return s.now }),
		WithStateChange(func(_ string, from, to State) {
			s.transitions = append(s.transitions, from.String()+"->"+to.String())
		}),
	)
}

func (s *BreakerSuite) TestOpensAfterThreshold() {
	s.True(s.breaker.Allow())
	s.breaker.RecordFailure()
	s.Equal(StateClosed, s.breaker.State())

	s.breaker.RecordFailure()
	s.Equal(StateOpen, s.breaker.State())
	s.False(s.breaker.Allow())
	s.Equal([]string{"closed->open"}, s.transitions)
}

func (s *BreakerSuite) TestSuccessResetsFailureCount() {
	s.breaker.RecordFailure()
	s.breaker.RecordSuccess()
	s.breaker.RecordFailure()

	s.Equal(StateClosed, s.breaker.State())
}

func (s *BreakerSuite) TestHalfOpenAfterCooldown() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()

	s.now = s.now.Add(time.Minute)
	s.True(s.breaker.Allow())
	s.Equal(StateHalfOpen, s.breaker.State())

	s.Run("trial failure re-opens", func() {
		s.breaker.RecordFailure()
		s.Equal(StateOpen, s.breaker.State())
		s.False(s.breaker.Allow())
	})

	s.Run("trial success closes", func() {
		s.now = s.now.Add(time.Minute)
		s.True(s.breaker.Allow())
		s.breaker.RecordSuccess()
		s.Equal(StateClosed, s.breaker.State())
	})
}
