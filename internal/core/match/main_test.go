package match

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}
