// Package gradio talks to Gradio Spaces over the queue-based HTTP API.
//
// A call is two requests: POST /gradio_api/call/{api} enqueues the job and
// returns an event id, and GET /gradio_api/call/{api}/{event_id} streams
// server-sent events until a "complete" or "error" event arrives. Files are
// uploaded first through /gradio_api/upload and passed by server path.
//
// Recognizer and Translator adapt the client to the speech recognition and
// translation Spaces kari uses.
package gradio
