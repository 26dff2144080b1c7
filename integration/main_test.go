//go:build integration

package integration_test

import (
	"os"
)

var validConfig string

func init() {
	// read config file
	dat, err := os.ReadFile("../config.yaml")
	if err != nil {
		panic(err)
	}
	validConfig = string(dat)
}
