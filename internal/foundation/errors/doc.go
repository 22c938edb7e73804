// Package errors provides the classified error primitives used across assetbuilder.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category (config, filesystem, transform, network...), a severity and a retry
// strategy. Stages use the category to decide whether a failure is fatal to the
// stage or only drops a single file; the CLI adapter maps categories to exit
// codes and the HTTP adapter maps them to status codes for the dev server.
//
//	err := errors.FileSystemError("write output").
//		WithContext("path", dst).
//		WithCause(ioErr).
//		Build()
package errors
