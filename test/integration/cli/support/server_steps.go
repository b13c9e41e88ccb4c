package support

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/quadwarp/internal/server"
)

func (testCtx *TestContext) theAPIServerIsRunning() error {
	return testCtx.startTestHTTPServer(server.Config{})
}

func (testCtx *TestContext) theAPIServerIsRunningWithAWarpLimitOfPerMinute(n int) error {
	return testCtx.startTestHTTPServer(server.Config{
		RateLimit: server.RateLimitConfig{Enabled: true, RequestsPerMinute: n},
	})
}

func (testCtx *TestContext) iGET(path string) error {
	return testCtx.sendRequest(http.MethodGet, path, "", nil)
}

func (testCtx *TestContext) iPOSTTo(path string, body *godog.DocString) error {
	return testCtx.postJSON(path, body.Content)
}

func (testCtx *TestContext) iUploadToWarpWithCorners(imageName, corners string) error {
	return testCtx.uploadImage(imageName, map[string]string{"corners": corners})
}

func (testCtx *TestContext) iUploadToWarpWithCornersAndHeight(imageName, corners string, height int) error {
	return testCtx.uploadImage(imageName, map[string]string{"corners": corners, "height": fmt.Sprint(height)})
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status %d, want %d\nbody: %s", testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s = %q, want %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(s string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, s) {
		return fmt.Errorf("response does not contain %q\nbody: %s", s, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theErrorTypeShouldBe(want string) error {
	var resp server.ErrorResponse
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &resp); err != nil {
		return fmt.Errorf("response is not an error document: %w\nbody: %s", err, testCtx.LastHTTPResponse)
	}
	if resp.Success {
		return fmt.Errorf("response reports success: %s", testCtx.LastHTTPResponse)
	}
	if resp.ErrorType != want {
		return fmt.Errorf("error_type %q, want %q (%s)", resp.ErrorType, want, resp.Error)
	}
	return nil
}

// theResponseJSONFieldShouldBeApproximately reuses the CLI JSON lookup on
// the HTTP body.
func (testCtx *TestContext) theResponseJSONFieldShouldBeApproximately(path string, want float64) error {
	saved := testCtx.LastOutput
	defer func() { testCtx.LastOutput = saved }()
	testCtx.LastOutput = testCtx.LastHTTPResponse
	return testCtx.theJSONFieldShouldBeApproximately(path, want)
}

func (testCtx *TestContext) iSaveTheResponseBodyAs(name string) error {
	path := testCtx.resolvePath(name)
	testCtx.TrackFile(path)
	return os.WriteFile(path, []byte(testCtx.LastHTTPResponse), 0o600)
}

// RegisterServerSteps registers steps that exercise the HTTP API.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the API server is running$`, testCtx.theAPIServerIsRunning)
	sc.Step(`^the API server is running with a warp limit of (\d+) per minute$`,
		testCtx.theAPIServerIsRunningWithAWarpLimitOfPerMinute)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST to "([^"]*)":$`, testCtx.iPOSTTo)
	sc.Step(`^I upload "([^"]*)" to warp with corners "([^"]*)"$`, testCtx.iUploadToWarpWithCorners)
	sc.Step(`^I upload "([^"]*)" to warp with corners "([^"]*)" and height (\d+)$`,
		testCtx.iUploadToWarpWithCornersAndHeight)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the error type should be "([^"]*)"$`, testCtx.theErrorTypeShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should be approximately (-?[0-9.eE+-]+)$`,
		testCtx.theResponseJSONFieldShouldBeApproximately)
	sc.Step(`^I save the response body as "([^"]*)"$`, testCtx.iSaveTheResponseBodyAs)
}
