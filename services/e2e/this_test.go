package main

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
)

type E2ERaceFlowSuite struct {
	suite.Suite
	client *http.Client
}

func TestE2ESuite(t *testing.T) {
	if os.Getenv("E2E_BASE_URL") == "" && os.Getenv("ENV") != "CI" {
		t.Skip("no running service, set E2E_BASE_URL")
	}
	suite.RunSuite(t, new(E2ERaceFlowSuite))
}

func (s *E2ERaceFlowSuite) BeforeAll(t provider.T) {
	s.client = &http.Client{Timeout: 30 * time.Second}
	t.Require().True(waitForService(s.client))
}

func (s *E2ERaceFlowSuite) TestRaceFlow(t provider.T) {
	t.Require().NoError(raceFlow(s.client))
}

func (s *E2ERaceFlowSuite) TestUnknownRoom(t provider.T) {
	err := do(s.client, http.MethodPost, "/rooms/ZZZZZZ/participants", "e2e-nobody", nil, http.StatusNotFound, nil)
	t.Assert().NoError(err)
}

func (s *E2ERaceFlowSuite) TestIdentityRequired(t provider.T) {
	err := do(s.client, http.MethodPost, "/rooms", "", nil, http.StatusUnauthorized, nil)
	t.Assert().NoError(err)
}
