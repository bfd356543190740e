// Package pipeline runs one webhook invocation from verification to
// persistence.
//
// # States
//
// A run walks a fixed sequence of steps, each blocking on its collaborator:
//
//	Verifying -> AwaitingState -> Normalizing -> Conversing ->
//	Formatting -> Delivering -> Persisting -> Done
//
// Any step before Delivering may end the run in Failed; nothing is
// delivered or persisted in that case. A handshake ends in Done straight
// after Verifying.
//
// # Result
//
// The result is fixed once delivery resolves and Run returns it right away.
// Persisting runs afterwards in the background whether delivery succeeded or
// not, on a context detached from the request. Its outcome is logged and
// exposed on Report.Persisted; Orchestrator.Wait drains pending saves on
// shutdown. A verification step also rejects messaging events that carry
// neither a message nor a postback, such as delivery and read receipts:
//
//	delivered         -> 200 "200"
//	handshake         -> 200 <challenge>
//	unrecognized      -> 400 "Neither a page type request nor ..."
//	any other failure -> 400 "An unexpected error occurred. ..."
package pipeline
