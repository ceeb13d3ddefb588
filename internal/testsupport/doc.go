// Package testsupport provides shared fixtures for package tests: temp-dir
// backed configs, scripted ffmpeg/ffprobe stand-ins that record their
// arguments, and small file helpers.
package testsupport
