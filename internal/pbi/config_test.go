package pbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/pbirefresh/internal/testutil"
)

func TestGetPBIPath_DefaultPath(t *testing.T) {
	t.Setenv("PBI_PATH", "")

	path := GetPBIPath()
	assert.Equal(t, DefaultPBIPath, path, "Should return default path when env var not set")
}

func TestGetPBIPath_EnvVarOverride(t *testing.T) {
	customPath := "D:\\Custom\\Path\\To\\PBIDesktop.exe"
	t.Setenv("PBI_PATH", customPath)

	path := GetPBIPath()
	assert.Equal(t, customPath, path, "Should return env var path when set")
}

func TestValidateInstallation_DefaultPathNotFound(t *testing.T) {
	t.Setenv("PBI_PATH", "")

	err := ValidateInstallation()
	// Most test environments won't have Power BI Desktop installed
	if err != nil {
		assert.Contains(t, err.Error(), "Power BI Desktop not found at default path")
		assert.Contains(t, err.Error(), DefaultPBIPath)
	}
}

func TestValidateInstallation_CustomPathNotFound(t *testing.T) {
	nonExistentPath := "Z:\\NonExistent\\Path\\PBIDesktop.exe"
	t.Setenv("PBI_PATH", nonExistentPath)

	err := ValidateInstallation()

	require.Error(t, err, "Should return error when custom path does not exist")
	assert.Contains(t, err.Error(), "Power BI Desktop not found at custom path")
	assert.Contains(t, err.Error(), nonExistentPath)
	assert.Contains(t, err.Error(), "PBI_PATH")
}

func TestValidateInstallation_CustomPathExists(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	exe := testutil.CreateTestFile(t, dir, "PBIDesktop.exe")
	t.Setenv("PBI_PATH", exe)

	assert.NoError(t, ValidateInstallation())
}
