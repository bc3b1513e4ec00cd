// Package log provides Context with logging metadata, as well as logging
// helper functions. Metadata (correlation id, job id, stage) is carried on
// the context so it survives stage boundaries and retries without being
// threaded through every function signature by hand.
package log

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/golang/glog"
)

// unique type to prevent assignment collisions from other packages.
type logCtxKeyType struct{}

var logCtxKey = logCtxKeyType{}

var defaultLogLevel glog.Level = 3

// metadata is immutable after creation, so it needs no locking.
type metadata map[string]any

func init() {
	vFlag := flag.Lookup("v")
	if vFlag != nil {
		// nolint:errcheck
		vFlag.Value.Set(fmt.Sprintf("%d", defaultLogLevel))
	}
}

func (m metadata) flat() []any {
	out := make([]any, 0, len(m)*2)
	for k, v := range m {
		out = append(out, k, v)
	}
	return out
}

// WithValues returns a new context carrying the given key/value pairs merged
// on top of any metadata already present on ctx.
func WithValues(ctx context.Context, args ...string) context.Context {
	old, _ := ctx.Value(logCtxKey).(metadata)
	merged := metadata{}
	for k, v := range old {
		merged[k] = v
	}
	for i := 1; i < len(args); i += 2 {
		merged[args[i-1]] = args[i]
	}
	return context.WithValue(ctx, logCtxKey, merged)
}

// CorrelationID returns the correlation id carried on ctx, if any.
func CorrelationID(ctx context.Context) string {
	meta, _ := ctx.Value(logCtxKey).(metadata)
	if meta == nil {
		return ""
	}
	id, _ := meta["correlationId"].(string)
	return id
}

func caller(depth int) string {
	_, myfile, _, _ := runtime.Caller(0)
	rootDir := filepath.Join(filepath.Dir(myfile), "..")
	_, file, line, _ := runtime.Caller(depth)
	rel, _ := filepath.Rel(rootDir, file)
	return rel + ":" + strconv.Itoa(line)
}

// Info logs message at the default verbosity, attaching any metadata found
// on ctx plus caller location.
func Info(ctx context.Context, message string, args ...any) {
	if !glog.V(defaultLogLevel) {
		return
	}
	meta, _ := ctx.Value(logCtxKey).(metadata)
	all := append([]any{}, meta.flat()...)
	all = append(all, args...)
	all = append(all, "caller", caller(3))
	glog.InfoDepth(1, fmt.Sprintf("%s %v", message, all))
}

// Error logs message and err, attaching ctx metadata.
func Error(ctx context.Context, message string, err error, args ...any) {
	meta, _ := ctx.Value(logCtxKey).(metadata)
	all := append([]any{}, meta.flat()...)
	all = append(all, args...)
	all = append(all, "err", err, "caller", caller(3))
	glog.ErrorDepth(1, fmt.Sprintf("%s %v", message, all))
}
