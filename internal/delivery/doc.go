// Package delivery sends locally produced media files to a Telegram chat.
//
// A delivery runs strictly in order: the configuration gate checks the bot
// token, chat id, file existence and size; the file extension is classified
// into a Bot API method, form field and MIME type; the file is streamed as a
// multipart upload. The connectivity probe checks the token with getMe
// before sending a test message to the chat, so a bad token is never
// reported as an unreachable chat.
//
// Every failure is returned as a *Error tagged with a Kind. Nothing is
// retried and no state is shared between calls except the HTTP transport.
package delivery
