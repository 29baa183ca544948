package main

import (
	"testing"

	"github.com/odyssey-erp/backoffice/internal/app"
	_ "github.com/odyssey-erp/backoffice/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	if !app.InTestMode() {
		t.Fatal("expected test mode to be enabled by the guard import")
	}
	main()
}
