// Package chat is the natural-language command surface.
//
// The Service builds a single-turn prompt from the live building snapshot
// and the recent transcript, asks the model, and extracts an optional
// fenced JSON action block from the reply. Non-destructive actions execute
// immediately through the Dispatcher; delete operations are parked in the
// per-actor Gate until the operator affirms or rejects them. Every exchange
// lands in the bounded Memory ring and in the chat_history table.
package chat
