package pbi

import (
	"fmt"
	"os"
)

const DefaultPBIPath = "C:\\Program Files\\Microsoft Power BI Desktop\\bin\\PBIDesktop.exe"

// GetPBIPath returns the path to the Power BI Desktop executable.
// It checks the PBI_PATH environment variable first,
// falling back to the default installation path if not set.
func GetPBIPath() string {
	if envPath := os.Getenv("PBI_PATH"); envPath != "" {
		return envPath
	}

	return DefaultPBIPath
}

// ValidateInstallation checks if the Power BI Desktop executable exists.
// Returns an error with helpful guidance if the file is not found.
func ValidateInstallation() error {
	path := GetPBIPath()

	var err error
	if _, err = os.Stat(path); os.IsNotExist(err) {
		if os.Getenv("PBI_PATH") != "" {
			return fmt.Errorf("Power BI Desktop not found at custom path: %s\n"+
				"Please verify the PBI_PATH environment variable is correct", path)
		}

		return fmt.Errorf("Power BI Desktop not found at default path: %s\n"+
			"Please install Power BI Desktop or set PBI_PATH environment variable", path)
	}

	if err != nil {
		return fmt.Errorf("error checking Power BI Desktop installation at %s: %w", path, err)
	}

	return nil
}
