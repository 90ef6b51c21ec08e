// Package webpush sends Web Push notifications to user agents via
// browser-provided push services (Mozilla autopush, Google FCM, Apple APNs,
// and others), using VAPID authentication.
//
// Generic Event Delivery Using HTTP Push
// https://www.rfc-editor.org/rfc/rfc8030.html
//
// Message Encryption for Web Push
// https://www.rfc-editor.org/rfc/rfc8291.html
//
// Voluntary Application Server Identification (VAPID) for Web Push
// https://www.rfc-editor.org/rfc/rfc8292
//
// Encrypted Content-Encoding for HTTP
// https://www.rfc-editor.org/rfc/rfc8188
//
// MDN Push API
// https://developer.mozilla.org/en-US/docs/Web/API/Push_API
package webpush
