package cucumber

import (
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/cucumber/godog"

	"github.com/auracorp/aurastudio/test/steps"
)

func init() {
	buildApp := exec.Command(
		"go", "build",
		"-ldflags", "-X 'github.com/auracorp/aurastudio/config.Version=cucumber-test-version'",
		"-o", "test/app",
		"./cmd/aurastudio",
	)
	buildApp.Dir = ".."
	if buildErr := buildApp.Run(); buildErr != nil {
		panic(buildErr)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		panic(err)
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	stepContext := &steps.StepContext{}

	ctx.Step(`^the studio API is running$`, stepContext.StartAppDefault)
	ctx.Step(`^the studio API is running with no network-backed providers allowed$`, stepContext.StartAppOfflineOnly)
	ctx.Step(`^the studio API is running with no encoder installed$`, stepContext.StartAppWithoutEncoder)
	ctx.Step(`^the studio API is running with an encoder that never exits$`, stepContext.StartAppWithHangingEncoder)

	ctx.Step(`^I submit a generation job with body:$`, stepContext.ISubmitAGenerationJobWithBody)
	ctx.Step(`^I submit an export job with body:$`, stepContext.ISubmitAnExportJobWithBody)
	ctx.Step(`^I cancel the job$`, stepContext.ICancelTheJob)
	ctx.Step(`^there are "([^"]*)" jobs running with live encoder subprocesses$`, stepContext.ThereAreNJobsRunningWithLiveEncoderSubprocesses)
	ctx.Step(`^I trigger a graceful shutdown$`, stepContext.ITriggerAGracefulShutdown)

	ctx.Step(`^I get an HTTP response with code "([^"]*)"$`, stepContext.IGetAnHTTPResponseWithCode)
	ctx.Step(`^the job reaches a terminal state within "([^"]*)" seconds$`, stepContext.TheJobReachesATerminalStateWithinSeconds)
	ctx.Step(`^the job's final status is "([^"]*)"$`, stepContext.TheJobsFinalStatusIs)
	ctx.Step(`^the job has a final-video artifact with a non-zero size$`, stepContext.TheJobHasAFinalVideoArtifactWithANonZeroSize)
	ctx.Step(`^the app exits within "([^"]*)" seconds$`, stepContext.TheAppExitsWithinSeconds)

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		stepContext.StopApp()
		return ctx, nil
	})
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			TestingT:      t,
			Strict:        true,
			StopOnFailure: false,
			Format:        "pretty",
			Paths:         []string{"features"},
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
