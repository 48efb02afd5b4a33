package admin

import (
	"context"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GetAdminToken() string
}

// RegisterSteps registers admin-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I request the trust list status as admin$`, steps.trustStatus)
	ctx.Step(`^I request the trust list status with admin token "([^"]*)"$`, steps.trustStatusWithToken)
	ctx.Step(`^I force a trust list refresh as admin$`, steps.refresh)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) headers(token string) map[string]string {
	return map[string]string{
		"X-Admin-Token":    token,
		"X-Admin-Actor-ID": "e2e-operator",
	}
}

func (s *adminSteps) trustStatus(ctx context.Context) error {
	return s.tc.GET("/admin/trust", s.headers(s.tc.GetAdminToken()))
}

func (s *adminSteps) trustStatusWithToken(ctx context.Context, token string) error {
	return s.tc.GET("/admin/trust", s.headers(token))
}

func (s *adminSteps) refresh(ctx context.Context) error {
	return s.tc.POSTWithHeaders("/admin/trust/refresh", map[string]interface{}{}, s.headers(s.tc.GetAdminToken()))
}
