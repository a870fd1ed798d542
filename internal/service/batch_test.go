package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"content_publisher/internal/adjust"
	"content_publisher/internal/config"
	"content_publisher/internal/domain"
	"content_publisher/internal/service/mocks"
)

type BatchOrchestratorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	adjuster  *mocks.MockAdjuster
	contents  *mocks.MockContentStore
	publisher *mocks.MockEventPublisher

	cfg config.BatchConfig
}

func (s *BatchOrchestratorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.adjuster = mocks.NewMockAdjuster(s.ctrl)
	s.contents = mocks.NewMockContentStore(s.ctrl)
	s.publisher = mocks.NewMockEventPublisher(s.ctrl)

	s.cfg = config.BatchConfig{
		Concurrency: 3,
		ChunkDelay:  time.Millisecond,
	}
}

func (s *BatchOrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
	goleak.VerifyNone(s.T())
}

func TestBatchOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(BatchOrchestratorTestSuite))
}

func (s *BatchOrchestratorTestSuite) orchestrator() *BatchOrchestrator {
	return NewBatchOrchestrator(s.adjuster, s.contents, s.publisher, testLogger(), s.cfg)
}

func artifacts(n int) []domain.ContentArtifact {
	out := make([]domain.ContentArtifact, n)
	for i := range out {
		out[i] = domain.ContentArtifact{
			ID:    fmt.Sprintf("a-%d", i),
			Title: fmt.Sprintf("title %d", i),
			Body:  fmt.Sprintf("<p>body %d</p>", i),
		}
	}
	return out
}

func adjusted(a domain.ContentArtifact) domain.AdjustmentResult {
	return domain.AdjustmentResult{
		ArtifactID:      a.ID,
		WasAdjusted:     true,
		AdjustedContent: a.Body + "<p>fixed</p>",
		AdjustedTitle:   strings.ToUpper(a.Title),
		QualityScore:    domain.ScoreDelta{Before: 40, After: 60},
	}
}

func (s *BatchOrchestratorTestSuite) TestRun_InvalidConcurrency() {
	for _, c := range []int{0, -1} {
		s.cfg.Concurrency = c
		report, err := s.orchestrator().Run(context.Background(), artifacts(2))
		s.ErrorIs(err, ErrInvalidConcurrency)
		s.Nil(report)
	}
}

func (s *BatchOrchestratorTestSuite) TestRun_Empty() {
	report, err := s.orchestrator().Run(context.Background(), nil)

	s.Require().NoError(err)
	s.Equal(0, report.Total)
	s.Equal(0, report.Processed)
	s.Empty(report.Results)
}

func (s *BatchOrchestratorTestSuite) TestRun_PreservesInputOrder() {
	items := artifacts(10)

	s.adjuster.EXPECT().Adjust(gomock.Any()).
		DoAndReturn(func(a domain.ContentArtifact) domain.AdjustmentResult {
			// later items in a chunk finish first
			var idx int
			fmt.Sscanf(a.ID, "a-%d", &idx)
			time.Sleep(time.Duration(3-idx%3) * 2 * time.Millisecond)
			return adjusted(a)
		}).
		Times(10)

	report, err := s.orchestrator().Run(context.Background(), items)

	s.Require().NoError(err)
	s.Equal(10, report.Total)
	s.Equal(10, report.Processed)
	s.Equal(10, report.Adjusted)
	s.Equal(0, report.Failed)
	s.Require().Len(report.Results, 10)
	for i, item := range report.Results {
		s.Equal(items[i].ID, item.ArtifactID)
		s.Equal(items[i].ID, item.Result.ArtifactID)
	}
}

func (s *BatchOrchestratorTestSuite) TestRun_PersistFailureIsIsolated() {
	s.cfg.Persist = true
	items := artifacts(6)

	s.adjuster.EXPECT().Adjust(gomock.Any()).DoAndReturn(adjusted).Times(6)
	s.contents.EXPECT().
		UpdateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id, title, body string) error {
			if id == "a-3" {
				return errors.New("deadlock detected")
			}
			return nil
		}).
		Times(6)
	s.publisher.EXPECT().PublishContentAdjusted(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	report, err := s.orchestrator().Run(context.Background(), items)

	s.Require().NoError(err)
	s.Equal(report.Total, report.Processed)
	s.Equal(1, report.Failed)
	s.Equal(5, report.Adjusted)

	failed := report.Results[3]
	s.Error(failed.Err)
	s.True(failed.Result.WasAdjusted)
	s.Equal("TITLE 3", failed.Result.AdjustedTitle)
}

func (s *BatchOrchestratorTestSuite) TestRun_PersistOnlyAdjusted() {
	s.cfg.Persist = true
	items := artifacts(2)

	s.adjuster.EXPECT().Adjust(items[0]).Return(domain.AdjustmentResult{ArtifactID: "a-0"})
	s.adjuster.EXPECT().Adjust(items[1]).Return(adjusted(items[1]))
	s.contents.EXPECT().UpdateContent(gomock.Any(), "a-1", "TITLE 1", items[1].Body+"<p>fixed</p>").Return(nil)
	s.publisher.EXPECT().PublishContentAdjusted(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	report, err := s.orchestrator().Run(context.Background(), items)

	s.Require().NoError(err)
	s.Equal(1, report.Adjusted)
	s.Equal(0, report.Failed)
}

func (s *BatchOrchestratorTestSuite) TestRun_NoPersistWhenDisabled() {
	s.adjuster.EXPECT().Adjust(gomock.Any()).DoAndReturn(adjusted).Times(4)

	report, err := s.orchestrator().Run(context.Background(), artifacts(4))

	s.Require().NoError(err)
	s.Equal(4, report.Adjusted)
}

func (s *BatchOrchestratorTestSuite) TestRun_PanicIsRecovered() {
	s.adjuster.EXPECT().Adjust(gomock.Any()).
		DoAndReturn(func(a domain.ContentArtifact) domain.AdjustmentResult {
			if a.ID == "a-1" {
				panic("nil map")
			}
			return adjusted(a)
		}).
		Times(3)

	report, err := s.orchestrator().Run(context.Background(), artifacts(3))

	s.Require().NoError(err)
	s.Equal(3, report.Processed)
	s.Equal(1, report.Failed)
	s.ErrorContains(report.Results[1].Err, "panic")
}

func (s *BatchOrchestratorTestSuite) TestRun_InvalidArtifactFails() {
	items := artifacts(2)
	items[0].ID = ""

	s.adjuster.EXPECT().Adjust(items[1]).Return(adjusted(items[1]))

	report, err := s.orchestrator().Run(context.Background(), items)

	s.Require().NoError(err)
	s.Equal(1, report.Failed)
	s.ErrorIs(report.Results[0].Err, domain.ErrInvalidArtifact)
}

func (s *BatchOrchestratorTestSuite) TestRun_SkipHighQuality() {
	s.cfg.SkipHighQuality = true
	target := "https://example.com/offer"
	good := "# Growing Herbs Indoors\n\n" +
		strings.TrimSpace(strings.Repeat("growth ", 160)) + "\n\n" +
		strings.TrimSpace(strings.Repeat("growth ", 160)) + " [our offer](" + target + ")"

	items := []domain.ContentArtifact{
		{ID: "good", Body: good, TargetURL: target},
		{ID: "bad", Body: "<div></div>"},
	}
	s.adjuster.EXPECT().Adjust(items[1]).Return(domain.AdjustmentResult{ArtifactID: "bad"})

	report, err := s.orchestrator().Run(context.Background(), items)

	s.Require().NoError(err)
	s.Equal(1, report.Skipped)
	s.True(report.Results[0].Skipped)
	s.Equal(good, report.Results[0].Result.AdjustedContent)
	s.Equal(100, report.Results[0].Result.QualityScore.After)
}

func (s *BatchOrchestratorTestSuite) TestRun_CancelStopsBeforeNextChunk() {
	s.cfg.Concurrency = 2
	s.cfg.ChunkDelay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.adjuster.EXPECT().Adjust(gomock.Any()).
		DoAndReturn(func(a domain.ContentArtifact) domain.AdjustmentResult {
			cancel()
			return adjusted(a)
		}).
		Times(2)

	report, err := s.orchestrator().Run(ctx, artifacts(5))

	s.ErrorIs(err, context.Canceled)
	s.Require().NotNil(report)
	s.Equal(5, report.Total)
	s.Equal(2, report.Processed)
	s.Len(report.Results, 2)
}

func (s *BatchOrchestratorTestSuite) TestRun_WithRealAdjuster() {
	s.cfg.Persist = true
	orchestrator := NewBatchOrchestrator(adjust.Adjuster{}, s.contents, nil, testLogger(), s.cfg)

	items := []domain.ContentArtifact{
		{ID: "empty", Title: "Draft", Body: "<div><p></p></div>"},
		{ID: "md", Body: "## Fresh Basil\n\nPinch the tops **weekly**."},
	}
	s.contents.EXPECT().
		UpdateContent(gomock.Any(), "md", "Fresh Basil", "<h2>Fresh Basil</h2><p>Pinch the tops <strong>weekly</strong>.</p>").
		Return(nil)

	report, err := orchestrator.Run(context.Background(), items)

	s.Require().NoError(err)
	s.False(report.Results[0].Result.WasAdjusted)
	s.Equal("<div><p></p></div>", report.Results[0].Result.AdjustedContent)
	s.True(report.Results[1].Result.WasAdjusted)
	s.Equal(1, report.Adjusted)
}
