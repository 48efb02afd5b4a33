package validate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	jwttoken "greenlight/internal/jwt_token"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GetAccessToken() string
	SetAccessToken(token string)
	GetSigningKey() string
	GetCertificate() string
	SetCertificate(cert string)
}

// RegisterSteps registers certificate validation step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &validateSteps{tc: tc}

	// Identity steps
	ctx.Step(`^I am signed in as "([^"]*)" "([^"]*)" born "([^"]*)" in "([^"]*)"$`, steps.signedInAs)

	// Certificate steps
	ctx.Step(`^I hold a vaccination certificate for "([^"]*)" "([^"]*)" born "([^"]*)" with product "([^"]*)" given (\d+) days ago$`, steps.holdVaccination)
	ctx.Step(`^I hold a test certificate for "([^"]*)" "([^"]*)" born "([^"]*)" sampled (\d+) hours ago$`, steps.holdTest)
	ctx.Step(`^I hold the raw certificate "([^"]*)"$`, steps.holdRaw)

	// Request steps
	ctx.Step(`^I validate my certificate$`, steps.validate)
	ctx.Step(`^I validate my certificate in jurisdiction "([^"]*)"$`, steps.validateIn)
	ctx.Step(`^I validate my certificate without a token$`, steps.validateAnonymous)
	ctx.Step(`^I validate my certificate with language "([^"]*)"$`, steps.validateWithLanguage)
}

type validateSteps struct {
	tc TestContext
}

func (s *validateSteps) signedInAs(ctx context.Context, given, family, dob, country string) error {
	svc := jwttoken.NewJWTService(s.tc.GetSigningKey(), jwttoken.DefaultIssuer, jwttoken.DefaultAudience, time.Hour)
	token, err := svc.GenerateIdentityToken(ctx, jwttoken.Identity{
		Subject:    "e2e-" + family,
		GivenName:  given,
		FamilyName: family,
		Birthdate:  dob,
		Country:    country,
	})
	if err != nil {
		return fmt.Errorf("failed to issue identity token: %w", err)
	}
	s.tc.SetAccessToken(token)
	return nil
}

func (s *validateSteps) holdVaccination(ctx context.Context, given, family, dob, product string, daysAgo int) error {
	dt := time.Now().UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
	return s.hold(map[string]interface{}{
		"ver": "1.3.0",
		"nam": map[string]interface{}{"gn": given, "fn": family},
		"dob": dob,
		"v": []interface{}{map[string]interface{}{
			"tg": "840539006", "vp": "1119349007", "mp": product, "ma": "ORG-100030215",
			"dn": 2, "sd": 2, "dt": dt, "co": "AT", "is": "Ministry of Health", "ci": "URN:UVCI:01:AT:E2E" + family,
		}},
	})
}

func (s *validateSteps) holdTest(ctx context.Context, given, family, dob string, hoursAgo int) error {
	sc := time.Now().UTC().Add(-time.Duration(hoursAgo) * time.Hour).Format(time.RFC3339)
	return s.hold(map[string]interface{}{
		"ver": "1.3.0",
		"nam": map[string]interface{}{"gn": given, "fn": family},
		"dob": dob,
		"t": []interface{}{map[string]interface{}{
			"tg": "840539006", "tt": "LP217198-3", "sc": sc, "tr": "260415000",
			"tc": "Teststraße", "co": "AT", "is": "Ministry of Health", "ci": "URN:UVCI:01:AT:E2ET" + family,
		}},
	})
}

// hold encodes the document the way the mock decoder expects it.
func (s *validateSteps) hold(doc map[string]interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.tc.SetCertificate("HC1:" + base64.RawURLEncoding.EncodeToString(raw))
	return nil
}

func (s *validateSteps) holdRaw(ctx context.Context, cert string) error {
	s.tc.SetCertificate(cert)
	return nil
}

func (s *validateSteps) validate(ctx context.Context) error {
	return s.post(map[string]interface{}{"hcert": s.tc.GetCertificate()}, s.authHeaders())
}

func (s *validateSteps) validateIn(ctx context.Context, country string) error {
	return s.post(map[string]interface{}{
		"hcert":        s.tc.GetCertificate(),
		"jurisdiction": map[string]string{"country": country},
	}, s.authHeaders())
}

func (s *validateSteps) validateAnonymous(ctx context.Context) error {
	return s.post(map[string]interface{}{"hcert": s.tc.GetCertificate()}, nil)
}

func (s *validateSteps) validateWithLanguage(ctx context.Context, lang string) error {
	headers := s.authHeaders()
	headers["Accept-Language"] = lang
	return s.post(map[string]interface{}{"hcert": s.tc.GetCertificate()}, headers)
}

func (s *validateSteps) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.tc.GetAccessToken()}
}

func (s *validateSteps) post(body interface{}, headers map[string]string) error {
	return s.tc.POSTWithHeaders("/greenlight/validate", body, headers)
}
