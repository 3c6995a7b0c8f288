package engine

import "github.com/m-mizutani/ctxlog"

// TrialScope gates per-trial logging. It is off unless a caller enables it
// on the context with ctxlog.EnableScope; a session emits hundreds of lines.
var TrialScope = ctxlog.NewScope("trial")
