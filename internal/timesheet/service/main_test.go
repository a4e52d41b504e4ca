package service_test

import (
	"os"
	"testing"

	"github.com/worktime/worktime-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	os.Exit(testutil.RunIntegration(m, &suite))
}
