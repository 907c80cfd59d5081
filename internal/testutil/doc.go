// Package testutil provides scripted fakes for exercising the sync loop
// deterministically: a remote source whose responses are queued ahead of
// time and can be held in flight, and an in-memory café backend for the
// service and HTTP layers.
package testutil
