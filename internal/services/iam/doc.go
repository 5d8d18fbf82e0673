// Package iam resolves request credentials into sessions and looks up worker
// subscriptions.
//
// Resolution is a fixed chain of SessionStrategy values:
//
//	RawCredential → PersistedStrategy (store lookup by token hash)
//	             ↓ not found, store error, timeout, expired
//	             SyntheticStrategy (portable token decode + demo directory)
//	             ↓ invalid
//	             (nil, lastErr)
//
// Each strategy runs at most once per request and none of them writes to the
// store. The returned Session belongs to the request that asked for it.
package iam
