package config

import (
	"fmt"
	"strings"
)

const CurrentConfigVersion = "1"

var SupportedConfigVersions = []string{CurrentConfigVersion}

func IsSupportedConfigVersion(v string) bool {
	for _, s := range SupportedConfigVersions {
		if v == s {
			return true
		}
	}
	return false
}

func SupportedConfigVersionsCSV() string {
	return strings.Join(SupportedConfigVersions, ", ")
}

func checkConfigVersion(v string) error {
	if IsSupportedConfigVersion(v) {
		return nil
	}
	return fmt.Errorf("unsupported configVersion: %q (supported: %s)", v, SupportedConfigVersionsCSV())
}
