package app_test

import "github.com/dkeye/Relay/internal/core"

func coreSID(s string) core.SessionID { return core.SessionID(s) }
