// Package shutdown stops snapkv-server components in order.
//
// Named hooks registered with OnShutdown run in reverse registration order
// once SIGINT or SIGTERM arrives, or the context passed to WaitContext is
// cancelled. All hooks share one timeout.
package shutdown
