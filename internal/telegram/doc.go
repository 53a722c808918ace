// Package telegram is a minimal Telegram Bot API client covering the methods
// needed to deliver files to a chat: getMe, sendMessage and the
// sendVideo/sendAudio/sendDocument multipart uploads.
//
// No external Telegram library is used. Requests go through an injected Doer
// (usually the pooled *http.Client from NewHTTPClient) so the transport can
// be shared across clients and replaced in tests. Nothing is retried: a
// failed call returns its error to the caller.
package telegram
