// Package qrcode renders otpauth:// provisioning URIs as QR codes, using
// github.com/skip2/go-qrcode.
//
// PNG returns image bytes, DataURL wraps them in a data:image/png;base64 URI
// for an <img> tag, and Terminal draws the code with Unicode half blocks so
// the CLI can show it directly.
//
//	url, err := qrcode.DataURL(uri, 0) // default 256px
//	fmt.Print(qrcode.Terminal(uri))
//
// Empty content fails with ErrEmptyContent; encoder failures are joined
// with ErrFailedToGenerate.
package qrcode
