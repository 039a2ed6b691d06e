package app

import (
	"time"

	"github.com/mbolis/survey-flow/config"
)

func testConfig() config.Config {
	return config.Config{
		APIBaseURL: "http://api.test/api/",
		Store:      config.StoreMemory,
		SessionTTL: time.Hour,
	}
}
