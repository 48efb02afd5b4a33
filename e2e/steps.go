package e2e

import (
	"github.com/cucumber/godog"

	"greenlight/e2e/steps/admin"
	"greenlight/e2e/steps/common"
	"greenlight/e2e/steps/validate"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	validate.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
