// Package services orchestrates formula installs.
//
// InstallService runs the install pipeline for one formula:
//
//	resolve build dependencies
//	lock the prefix
//	fetch and verify the source into a staging directory
//	build into a staging prefix
//	move the built binaries into the prefix
//	write the install receipt
//	run the smoke test and record its outcome
//
// Everything before the move happens inside <prefix>/.staging/<id>, which
// is removed afterwards, so an install that fails before that point leaves
// the prefix exactly as it was.
package services
